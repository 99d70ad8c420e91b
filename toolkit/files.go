package toolkit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	ReadFileToolName      = "read_file"
	ListDirectoryToolName = "list_directory"
	WriteFileToolName     = "write_file"
)

// NewReadFileTool returns the read_file tool. The content is returned as a
// fenced block prefixed with the path.
func NewReadFileTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		ReadFileToolName,
		"Read the contents of a file.",
		[]tool.Param{tool.Required("file_path", "string", "Path to the file to read")},
		func(_ *core.ToolContext, args tool.Args) (any, error) {
			path := args.String("file_path")
			content, err := ws.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Sprintf("Error: File '%s' does not exist.", path), nil
				}
				return fmt.Sprintf("Error reading file '%s': %v", path, err), nil
			}
			return fmt.Sprintf("Content of %s:\n```\n%s\n```", path, content), nil
		},
	)
}

// NewListDirectoryTool returns the list_directory tool.
func NewListDirectoryTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		ListDirectoryToolName,
		"List all files and directories in the specified path.",
		[]tool.Param{tool.Optional("dir_path", "string", "Path to the directory to list", ".")},
		func(_ *core.ToolContext, args tool.Args) (any, error) {
			dir := args.String("dir_path")
			entries, err := ws.ListDirectory(dir)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Sprintf("Error: Directory '%s' does not exist.", dir), nil
				}
				return fmt.Sprintf("Error listing directory '%s': %v", dir, err), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Contents of %s:", dir)
			for _, e := range entries {
				kind := "FILE"
				if e.IsDir {
					kind = "DIR"
				}
				fmt.Fprintf(&b, "\n  [%s] %s", kind, e.Name)
			}
			return b.String(), nil
		},
	)
}

// NewWriteFileTool returns the write_file tool.
func NewWriteFileTool(ws *workspace.Workspace) tool.Tool {
	return tool.NewFunctionTool(
		WriteFileToolName,
		"Write content to a file. Creates the file if it doesn't exist.",
		[]tool.Param{
			tool.Required("file_path", "string", "Path to the file to write"),
			tool.Required("content", "string", "Content to write to the file"),
		},
		func(_ *core.ToolContext, args tool.Args) (any, error) {
			path := args.String("file_path")
			if _, err := ws.WriteFile(path, args.String("content")); err != nil {
				return fmt.Sprintf("Error writing to file '%s': %v", path, err), nil
			}
			return "Successfully wrote to " + path, nil
		},
	)
}
