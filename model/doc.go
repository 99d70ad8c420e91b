// Package model defines the provider-agnostic abstractions for interacting with
// language models inside agentcrew.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Carry tool calls in the shared core.ToolCall shape so agents never branch per vendor
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic testing (ScriptedModel)
//
// Providers (OpenAI compatible servers, Anthropic) implement Model in sub
// packages; agents only depend on Model and the Complete helper.
package model
