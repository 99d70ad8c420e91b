package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
)

// Func is the signature of the Go function wrapped by a FunctionTool.
type Func func(toolCtx *core.ToolContext, args Args) (any, error)

// FunctionTool exposes a plain Go function as a Tool.
//
// Responsibilities:
//   - Holds a declarative parameter list and the JSON schema derived from it
//   - Fills declared defaults, then validates arguments before execution
//   - Normalizes error handling so callers receive *ToolError with consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	params      []Param
	schema      map[string]any
	fn          Func
}

// NewFunctionTool constructs a FunctionTool from a declarative parameter list.
//
// Example:
//
//	readFile := tool.NewFunctionTool(
//	  "read_file",
//	  "Read the contents of a file",
//	  []tool.Param{tool.Required("file_path", "string", "Path of the file to read")},
//	  func(tc *core.ToolContext, args tool.Args) (any, error) {
//	    return ws.ReadFile(args.String("file_path"))
//	  },
//	)
func NewFunctionTool(name, description string, params []Param, fn Func) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		params:      params,
		schema:      Schema(params...),
		fn:          fn,
	}
}

// Name returns the tool name used in function call declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.schema }

// Call fills defaults, validates the provided args against the declared
// parameters and invokes the underlying function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	start := time.Now()

	toolCtx.LogDebug("tool.function.start", "tool", t.name, "fc_id", toolCtx.FunctionCallID())

	if args == nil {
		args = map[string]any{}
	}
	args = applyDefaults(args, t.params)

	if err := util.ValidateParameters(args, t.schema); err != nil {
		toolCtx.LogWarn("tool.function.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, Args(args))
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			toolCtx.LogError("tool.function.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		toolCtx.LogError("tool.function.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	toolCtx.LogDebug("tool.function.done", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
