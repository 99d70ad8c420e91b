// Package core provides the foundational domain types shared by agents, tools
// and the conversation runner:
//
//   - Message / ToolCall (OpenAI style chat records with agent attribution)
//   - Conversation (the append-only shared buffer passed between agents)
//   - ToolSpec (the provider neutral description of a callable tool)
//   - ToolContext / Effect (the typed handoff and finish signals a tool may raise)
//   - Agent / TurnResult (the contract the runner drives)
//
// Concrete agents, providers and stores live in their own packages; core only
// exposes small types and interfaces so they can be wired together freely.
package core
