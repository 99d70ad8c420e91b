package toolkit

import (
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

// FileTools returns read_file and list_directory.
func FileTools(ws *workspace.Workspace) []tool.Tool {
	return []tool.Tool{NewReadFileTool(ws), NewListDirectoryTool(ws)}
}

// CoderTools returns the tools for writing and repairing staged code.
func CoderTools(ws *workspace.Workspace) []tool.Tool {
	return []tool.Tool{NewCreateFunctionTool(ws), NewFixFunctionTool(ws)}
}

// TesterTools returns the tools for preparing and running tests.
func TesterTools(ws *workspace.Workspace) []tool.Tool {
	return []tool.Tool{
		NewSetupTestEnvironmentTool(ws),
		NewWriteUnitTestsTool(ws),
		NewRunUnitTestsTool(ws),
	}
}

// TaskTools returns create_task_list, update_task_status and get_tasks.
func TaskTools(store *workspace.TaskStore) []tool.Tool {
	return []tool.Tool{
		NewCreateTaskListTool(store),
		NewUpdateTaskStatusTool(store),
		NewGetTasksTool(store),
	}
}
