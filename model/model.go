package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	// Model optionally overrides the provider's configured model name.
	Model string `json:"model,omitempty"`
	// Instructions is the system prompt sent ahead of Messages.
	Instructions string `json:"instructions"`
	// Messages is the conversation history (no system messages).
	Messages []core.Message `json:"messages"`
	// Tools are the callable tools offered for this call.
	Tools []core.ToolSpec `json:"tools,omitempty"`
	// Stream requests partial responses.
	Stream bool `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
//
// Partial responses carry text deltas only. The final response carries the
// complete assistant text and all tool calls in request order.
type Response struct {
	ID           string          `json:"id"`
	Partial      bool            `json:"partial"`
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Both channels are closed when generation ends; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete drains a Generate call and returns the final response. onPartial,
// when non-nil, receives every partial text delta in order.
func Complete(ctx context.Context, m Model, req Request, onPartial func(string)) (*Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *Response
		partial strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Text)
				if onPartial != nil && r.Text != "" {
					onPartial(r.Text)
				}
				continue
			}
			resp := r
			final = &resp
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if final == nil {
		if partial.Len() == 0 {
			return nil, fmt.Errorf("model %s: no response", m.Info().Name)
		}
		final = &Response{Text: partial.String(), FinishReason: "stop"}
	}

	return final, nil
}
