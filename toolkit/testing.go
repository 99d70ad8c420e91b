package toolkit

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	SetupTestEnvironmentToolName = "setup_test_environment"
	WriteUnitTestsToolName       = "write_unit_tests"
	RunUnitTestsToolName         = "run_unit_tests"
)

// NewSetupTestEnvironmentTool returns the setup_test_environment tool.
func NewSetupTestEnvironmentTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		SetupTestEnvironmentToolName,
		"Set up an isolated Go module for running tests and fetch the required packages.",
		[]tool.Param{{
			Name:        "required_packages",
			Type:        "array",
			Items:       "string",
			Description: "Go module paths to fetch with go get",
			Default:     []any{},
			HasDefault:  true,
		}},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			res, err := ws.SetupTestEnv(tc.Context(), args.Strings("required_packages"))
			if err != nil {
				return failure(fmt.Sprintf("Error setting up test environment: %v", err)), nil
			}
			out := success("Test environment ready").With(
				"testenv_path", res.Path,
				"packages_installed", res.Packages,
			)
			if len(res.Warnings) > 0 {
				out["warning"] = strings.Join(res.Warnings, "; ")
			}
			return out, nil
		},
	)
}

// NewWriteUnitTestsTool returns the write_unit_tests tool.
func NewWriteUnitTestsTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		WriteUnitTestsToolName,
		"Write Go unit tests (package testing) for a function.",
		[]tool.Param{
			tool.Required("function_name", "string", "Name of the function being tested"),
			tool.Required("test_code", "string", "Complete Go test code with Test functions"),
			tool.Required("function_file", "string", "Path to the file containing the function to test"),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			name := args.String("function_name")
			path, err := ws.WriteUnitTests(name, args.String("test_code"))
			if err != nil {
				return codeFailure("Syntax error in test code", "Error creating unit tests", err), nil
			}
			return success(fmt.Sprintf("Unit tests for '%s' created successfully", name)).With(
				"test_file", path,
				"function_file", args.String("function_file"),
			), nil
		},
	)
}

// NewRunUnitTestsTool returns the run_unit_tests tool.
func NewRunUnitTestsTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		RunUnitTestsToolName,
		"Run unit tests and return the results.",
		[]tool.Param{
			tool.Required("test_file", "string", "Path to the test file to run"),
			tool.Required("function_file", "string", "Path to the file containing the function being tested"),
			tool.Optional("use_venv", "boolean", "Whether to run inside the isolated test module", true),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			testFile := args.String("test_file")
			res, err := ws.RunUnitTests(tc.Context(), testFile, args.String("function_file"), args.Bool("use_venv"))
			if err != nil {
				return failure(fmt.Sprintf("Error running tests: %v", err)).With("needs_fix", true), nil
			}

			out := Result{
				"status":    string(res.Status),
				"test_file": testFile,
				"output":    res.Output,
			}
			switch res.Status {
			case workspace.TestPassed:
				out["message"] = "All tests passed successfully"
			case workspace.TestFailed:
				out["message"] = "Some tests failed"
				out["needs_fix"] = true
			default:
				out["message"] = res.Output
				out["needs_fix"] = true
			}
			return out, nil
		},
	)
}
