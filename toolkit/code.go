package toolkit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	CreateFunctionToolName   = "create_function"
	FixFunctionToolName      = "fix_function"
	FinalizeFunctionToolName = "finalize_function"
)

// NewCreateFunctionTool returns the create_function tool. The code is
// validated and staged in the workspace for review.
func NewCreateFunctionTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		CreateFunctionToolName,
		"Create a new Go function and stage it for review. The code may omit the package clause.",
		[]tool.Param{
			tool.Required("function_name", "string", "Name of the function to create"),
			tool.Required("function_code", "string", "Complete Go code for the function including its doc comment and imports"),
			tool.Required("file_path", "string", "Path to the file where this function should be written"),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			name := args.String("function_name")
			staged, err := ws.StageFunction(name, args.String("function_code"), args.String("file_path"))
			if err != nil {
				return codeFailure("Syntax error in function code", "Error creating function", err), nil
			}
			return success(fmt.Sprintf("Function '%s' created successfully", name)).With(
				"temp_file", staged.TempFile,
				"target_file", staged.TargetFile,
				"function_name", staged.Name,
			), nil
		},
	)
}

// NewFixFunctionTool returns the fix_function tool which replaces staged code.
func NewFixFunctionTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		FixFunctionToolName,
		"Fix a problematic function based on test results or errors.",
		[]tool.Param{
			tool.Required("function_name", "string", "Name of the function to fix"),
			tool.Required("fixed_code", "string", "Fixed Go code for the function"),
			tool.Required("error_details", "string", "Details about what was wrong with the original code"),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			name := args.String("function_name")
			staged, err := ws.StageFunction(name, args.String("fixed_code"), "")
			if err != nil {
				return codeFailure("Syntax error in fixed code", "Error fixing function", err), nil
			}
			return success(fmt.Sprintf("Function '%s' fixed successfully", name)).With(
				"temp_file", staged.TempFile,
				"fix_applied", args.String("error_details"),
			), nil
		},
	)
}

// NewFinalizeFunctionTool returns the finalize_function tool which merges
// approved staged code into its target file.
func NewFinalizeFunctionTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		FinalizeFunctionToolName,
		"Finalize a function by adding it to the target file after tests pass.",
		[]tool.Param{
			tool.Required("function_name", "string", "Name of the function to finalize"),
			tool.Required("target_file", "string", "Target file path where the function should be added"),
			tool.Optional("temp_file", "string", "Temporary file containing the approved function code", ""),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			name := args.String("function_name")
			target := args.String("target_file")
			path, err := ws.FinalizeFunction(name, target, args.String("temp_file"))
			if err != nil {
				return failure(fmt.Sprintf("Error finalizing function: %v", err)), nil
			}
			return success(fmt.Sprintf("Function '%s' finalized and added to %s", name, target)).With("file", path), nil
		},
	)
}

func codeFailure(syntaxPrefix, otherPrefix string, err error) Result {
	var syntaxErr *workspace.SyntaxError
	if errors.As(err, &syntaxErr) {
		return failure(fmt.Sprintf("%s: %s", syntaxPrefix, syntaxErr.Message)).With("error_line", syntaxErr.Line)
	}
	return failure(fmt.Sprintf("%s: %v", otherPrefix, err))
}
