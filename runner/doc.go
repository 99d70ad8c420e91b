// Package runner drives the conversation between agents.
//
// A Runner owns the shared conversation buffer and the current-agent cursor.
// Each iteration looks the current agent up by name, lets it take exactly one
// turn over the full history, appends the turn's messages and moves the
// cursor to the agent the turn handed off to.
//
// Two variants exist:
//   - RunInteractive reads a user line whenever the buffer is empty or the
//     last message came from the assistant, and stops on "quit" or "exit".
//   - RunProgrammatic seeds one user prompt and free-runs until an agent calls
//     finish_workflow, a streak of idle turns is observed or the iteration cap
//     is reached.
//
// Observers receive turn and stop notifications; Metrics is an Observer
// exporting Prometheus collectors.
package runner
