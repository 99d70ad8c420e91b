package toolkit

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	CreateTaskListToolName   = "create_task_list"
	UpdateTaskStatusToolName = "update_task_status"
	GetTasksToolName         = "get_tasks"
)

const noTaskListMessage = "No active task list found. Create one first with create_task_list."

// NewCreateTaskListTool returns the create_task_list tool.
func NewCreateTaskListTool(store *workspace.TaskStore) tool.Tool {
	return tool.NewFunctionTool(
		CreateTaskListToolName,
		"Create a task list for the current workflow. Use this when breaking down a complex request into step-by-step tasks.",
		[]tool.Param{tool.Required("tasks", "string",
			`JSON array string of task objects with 'description' field, e.g. '[{"description": "Implement calculator"}, {"description": "Write tests"}]'`)},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			tasks, err := store.CreateFromJSON(args.String("tasks"))
			if err != nil {
				return taskFailure("Error creating task list", err), nil
			}
			return success(fmt.Sprintf("Created task list with %d tasks", len(tasks))).With(
				"tasks", tasks,
				"task_count", len(tasks),
			), nil
		},
	)
}

// NewUpdateTaskStatusTool returns the update_task_status tool.
func NewUpdateTaskStatusTool(store *workspace.TaskStore) tool.Tool {
	return tool.NewFunctionTool(
		UpdateTaskStatusToolName,
		"Update the status of a specific task in the task list.",
		[]tool.Param{
			tool.Required("task_index", "integer", "Index of the task to update (0-based)"),
			tool.Required("status", "string", "New status: 'pending', 'in_progress', or 'completed'"),
		},
		func(tc *core.ToolContext, args tool.Args) (any, error) {
			index := args.Int("task_index")
			status := workspace.Status(args.String("status"))
			task, _, err := store.Update(index, status)
			if err != nil {
				return taskFailure("Error updating task status", err), nil
			}
			return success(fmt.Sprintf("Updated task %d to '%s'", index, status)).With("task", task), nil
		},
	)
}

// NewGetTasksTool returns the get_tasks tool which reports the list and progress.
func NewGetTasksTool(store *workspace.TaskStore) tool.Tool {
	return tool.NewFunctionTool(
		GetTasksToolName,
		"Get the current task list with the status of every task.",
		nil,
		func(tc *core.ToolContext, _ tool.Args) (any, error) {
			if !store.Exists() {
				return failure(noTaskListMessage), nil
			}
			tasks, err := store.List()
			if err != nil {
				return taskFailure("Error reading task list", err), nil
			}
			return success(fmt.Sprintf("%d tasks", len(tasks))).With(
				"tasks", tasks,
				"progress", workspace.Summarize(tasks),
			), nil
		},
	)
}

func taskFailure(prefix string, err error) Result {
	switch {
	case errors.Is(err, workspace.ErrNoActiveTasks):
		return failure(noTaskListMessage)
	case errors.Is(err, workspace.ErrIndexOutOfRange),
		errors.Is(err, workspace.ErrInvalidStatus),
		errors.Is(err, workspace.ErrEmptyTaskList),
		errors.Is(err, workspace.ErrInvalidTaskList):
		return failure(capitalize(err.Error()))
	}
	return failure(fmt.Sprintf("%s: %v", prefix, err))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
