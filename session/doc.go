// Package session holds workflow sessions: one programmatic run of the crew
// over a shared conversation, observable while it is in progress.
//
// A Workflow owns a runner and its conversation buffer, runs the loop on a
// background goroutine and exposes snapshot reads (status, messages,
// communications, tasks) that are safe to call concurrently. InMemoryStore
// keeps workflows by id for the HTTP bridge.
package session
