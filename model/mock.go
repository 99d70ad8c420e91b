package model

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// ErrScriptExhausted is returned by ScriptedModel when no scripted response is left.
var ErrScriptExhausted = errors.New("scripted model: no responses left")

// ScriptedModel is a deterministic in-memory Model for tests and examples. It
// returns its scripted responses in order and records every request.
// When Repeat is set, the last response is returned forever once the script
// is exhausted.
type ScriptedModel struct {
	info      Info
	responses []Response
	errs      map[int]error
	requests  []Request
	pos       int
	Repeat    bool
	mu        sync.Mutex
}

// NewScriptedModel constructs a ScriptedModel returning responses in order.
func NewScriptedModel(name string, responses ...Response) *ScriptedModel {
	return &ScriptedModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: responses,
		errs:      map[int]error{},
	}
}

// Text builds a final plain text response.
func Text(text string) Response {
	return Response{Text: text, FinishReason: "stop"}
}

// Calls builds a final response requesting the given tool calls.
func Calls(text string, calls ...core.ToolCall) Response {
	return Response{Text: text, ToolCalls: calls, FinishReason: "tool_calls"}
}

// FailAt makes the call with the given zero-based index fail with err.
func (m *ScriptedModel) FailAt(call int, err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[call] = err
	return m
}

// Requests returns the requests received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *ScriptedModel) next(req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.requests)
	m.requests = append(m.requests, req)

	if err, ok := m.errs[idx]; ok {
		return Response{}, err
	}
	if m.pos < len(m.responses) {
		resp := m.responses[m.pos]
		m.pos++
		return resp, nil
	}
	if m.Repeat && len(m.responses) > 0 {
		return m.responses[len(m.responses)-1], nil
	}
	return Response{}, ErrScriptExhausted
}

// Generate implements Model; with Stream set the text is emitted as one
// partial chunk per word before the final response.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		resp, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream && resp.Text != "" {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case respCh <- Response{Partial: true, Text: resp.Text}:
			}
		}

		resp.Partial = false
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- resp:
		}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
