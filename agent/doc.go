// Package agent contains the conversational agent used by every crew role.
//
// An Agent couples a name, an instruction (static template or dynamic
// provider), a private tool registry and a model client. Run performs a single
// turn against the shared history:
//
//  1. resolve the instruction and send it, the full history and the tool
//     descriptions to the model
//  2. record the reply as one assistant message (with any tool calls)
//  3. dispatch each tool call in order and record one tool message per call
//  4. report the next agent: the last handoff target, otherwise itself
//
// Agents never append to the conversation themselves; the runner does.
package agent
