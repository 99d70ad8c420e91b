package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// Registry is the per-agent set of callable tools together with the tool
// descriptions sent to the model.
//
// Contract:
//   - Register deduplicates by reference identity only; two distinct tools with
//     the same name are both kept and the first registered one wins lookups
//   - Remove drops every tool with the given name and rebuilds the descriptions
//   - Dispatch never returns an error and never panics; failures become text.
type Registry struct {
	tools  []Tool
	specs  []core.ToolSpec
	logger logging.Logger
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Registry{logger: opts.Logger}
}

// Register adds tools unless the very same tool value is already registered.
func (r *Registry) Register(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tools {
		if t == nil || r.containsLocked(t) {
			continue
		}
		r.tools = append(r.tools, t)
	}
	r.rebuildLocked()
}

// Remove drops all tools named name and reports whether any was removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.tools[:0:0]
	for _, t := range r.tools {
		if t.Name() != name {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(r.tools)
	r.tools = kept
	r.rebuildLocked()
	return removed
}

// Lookup returns the first registered tool named name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Describe returns the tool descriptions for the model. Shadowed tools (a
// later tool with an already described name) are not described since they
// can never be dispatched.
func (r *Registry) Describe() []core.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.ToolSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the names of all registered tools in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

func (r *Registry) containsLocked(t Tool) bool {
	for _, existing := range r.tools {
		if sameTool(existing, t) {
			return true
		}
	}
	return false
}

func (r *Registry) rebuildLocked() {
	specs := make([]core.ToolSpec, 0, len(r.tools))
	seen := make(map[string]bool, len(r.tools))
	for _, t := range r.tools {
		if seen[t.Name()] {
			continue
		}
		seen[t.Name()] = true
		specs = append(specs, describe(t))
	}
	r.specs = specs
}

func describe(t Tool) core.ToolSpec {
	desc := t.Description()
	if desc == "" {
		desc = "Function " + t.Name()
	}
	params := t.Parameters()
	if params == nil {
		params = Schema()
	}
	return core.ToolSpec{Name: t.Name(), Description: desc, Parameters: params}
}

// sameTool compares by reference identity; values of non comparable dynamic
// types are never considered equal.
func sameTool(a, b Tool) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Result is the outcome of one dispatched tool call.
type Result struct {
	// Content is the text appended to the conversation as the tool message.
	Content string
	// Effect is the control effect the tool recorded (Continue when none).
	Effect core.Effect
	// Err is the underlying failure, if any. It is informational; Content
	// already carries the rendered error text.
	Err      error
	Duration time.Duration
}

// Dispatch executes one tool call requested by agent. Empty arguments are
// treated as an empty object. It never returns an error: unknown tools,
// malformed arguments, validation failures, returned errors and panics are all
// rendered into Result.Content.
func (r *Registry) Dispatch(ctx context.Context, agent string, call core.ToolCall) Result {
	start := time.Now()

	t, ok := r.Lookup(call.Name)
	if !ok {
		err := NewToolError(call.Name, "not found", CodeNotFound)
		r.logger.Warn("tool.dispatch.not_found", "agent", agent, "tool", call.Name)
		return Result{Content: fmt.Sprintf("Error: Function %s not found", call.Name), Effect: core.Continue(), Err: err, Duration: time.Since(start)}
	}

	toolCtx := core.NewToolContext(ctx, agent, call.ID, r.logger)

	content, err := r.execute(t, toolCtx, call)
	res := Result{Content: content, Effect: toolCtx.Effect(), Err: err, Duration: time.Since(start)}
	if err != nil {
		res.Content = fmt.Sprintf("Error executing %s: %s", call.Name, errorMessage(err))
		res.Effect = core.Continue()
	}

	logging.LogToolCall(r.logger, call.Name, res.Duration, err,
		"agent", agent,
		"function_call_id", call.ID,
		"effect", res.Effect.Kind.String(),
	)

	return res
}

// execute calls the tool and renders its result; both steps run under the
// same recover so a panicking String or MarshalJSON is reported like any
// other tool panic.
func (r *Registry) execute(t Tool, toolCtx *core.ToolContext, call core.ToolCall) (content string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = panicError(call.Name, rec)
			r.logger.Error("tool.dispatch.panic", "tool", call.Name, "recover", fmt.Sprint(rec), "stack", string(debug.Stack()))
		}
	}()

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", &ToolError{Tool: call.Name, Message: fmt.Sprintf("invalid arguments: %v", err), Code: CodeInvalidArguments}
		}
		if args == nil { // literal null
			args = map[string]any{}
		}
	}

	out, err := t.Call(toolCtx, args)
	if err != nil {
		return "", err
	}
	return Stringify(out), nil
}

func panicError(name string, rec any) error {
	return &ToolError{Tool: name, Message: fmt.Sprintf("panic: %v", rec), Code: CodePanic}
}

func errorMessage(err error) string {
	if te, ok := err.(*ToolError); ok {
		return te.Message
	}
	return err.Error()
}

// Stringify renders a tool result as conversation text. Strings are used
// verbatim, nil becomes the empty string, fmt.Stringer is honoured and any
// other value is JSON encoded (falling back to fmt formatting).
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
