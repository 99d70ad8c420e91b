package toolkit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

type stubRunner struct {
	exitCode int
	calls    [][]string
}

func (s *stubRunner) Run(_ context.Context, _ string, name string, args ...string) (string, int, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return "=== RUN TestX", s.exitCode, nil
}

func setup(t *testing.T) (*workspace.Workspace, *tool.Registry, *stubRunner) {
	t.Helper()
	runner := &stubRunner{}
	ws, err := workspace.New("", func(o *workspace.Options) {
		o.BaseDir = t.TempDir()
		o.Runner = runner
	})
	require.NoError(t, err)

	reg := tool.NewRegistry()
	reg.Register(FileTools(ws)...)
	reg.Register(CoderTools(ws)...)
	reg.Register(TesterTools(ws)...)
	reg.Register(TaskTools(ws.Tasks())...)
	reg.Register(NewWriteFileTool(ws), NewFinalizeFunctionTool(ws))
	return ws, reg, runner
}

func dispatch(t *testing.T, reg *tool.Registry, name string, args any) string {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res := reg.Dispatch(context.Background(), "Orchestrator", core.ToolCall{ID: "call_1", Name: name, Arguments: string(raw)})
	return res.Content
}

func decode(t *testing.T, content string) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(content), &out), content)
	return out
}

func TestTaskTools(t *testing.T) {
	_, reg, _ := setup(t)

	out := decode(t, dispatch(t, reg, UpdateTaskStatusToolName, map[string]any{"task_index": 0, "status": "completed"}))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "No active task list found. Create one first with create_task_list.", out["message"])

	out = decode(t, dispatch(t, reg, CreateTaskListToolName, map[string]any{"tasks": `["A", {"description": "B"}]`}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Created task list with 2 tasks", out["message"])
	assert.EqualValues(t, 2, out["task_count"])

	for i := 0; i < 2; i++ {
		out = decode(t, dispatch(t, reg, UpdateTaskStatusToolName, map[string]any{"task_index": 0, "status": "completed"}))
		assert.Equal(t, "success", out["status"])
		assert.Equal(t, "Updated task 0 to 'completed'", out["message"])
	}

	out = decode(t, dispatch(t, reg, UpdateTaskStatusToolName, map[string]any{"task_index": 5, "status": "completed"}))
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["message"], "out of range (0-1)")

	out = decode(t, dispatch(t, reg, GetTasksToolName, map[string]any{}))
	assert.Equal(t, "success", out["status"])
	progress := out["progress"].(map[string]any)
	assert.EqualValues(t, 1, progress["completed"])
	assert.EqualValues(t, 1, progress["pending"])
}

func TestCreateTaskList_Invalid(t *testing.T) {
	_, reg, _ := setup(t)

	out := decode(t, dispatch(t, reg, CreateTaskListToolName, map[string]any{"tasks": `[]`}))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "Task list cannot be empty", out["message"])

	out = decode(t, dispatch(t, reg, CreateTaskListToolName, map[string]any{"tasks": `[{"title": "x"}]`}))
	assert.Contains(t, out["message"], "task 0 must have a 'description' field or be a string")
}

func TestFunctionLifecycle(t *testing.T) {
	ws, reg, runner := setup(t)

	out := decode(t, dispatch(t, reg, CreateFunctionToolName, map[string]any{
		"function_name": "add",
		"function_code": "func add(a, b int) int { return a - b }",
		"file_path":     "calc.go",
	}))
	require.Equal(t, "success", out["status"])
	assert.Equal(t, filepath.Join(ws.Dir(), "add_temp.go"), out["temp_file"])
	assert.Equal(t, "calc.go", out["target_file"])

	out = decode(t, dispatch(t, reg, FixFunctionToolName, map[string]any{
		"function_name": "add",
		"fixed_code":    "func add(a, b int) int { return a + b }",
		"error_details": "subtracted instead of added",
	}))
	require.Equal(t, "success", out["status"])
	assert.Equal(t, "subtracted instead of added", out["fix_applied"])

	out = decode(t, dispatch(t, reg, WriteUnitTestsToolName, map[string]any{
		"function_name": "add",
		"test_code":     "import \"testing\"\n\nfunc TestAdd(t *testing.T) {}\n",
		"function_file": "add_temp.go",
	}))
	require.Equal(t, "success", out["status"])
	testFile := out["test_file"].(string)

	out = decode(t, dispatch(t, reg, RunUnitTestsToolName, map[string]any{
		"test_file":     testFile,
		"function_file": ws.StagingPath("add"),
	}))
	assert.Equal(t, "passed", out["status"])
	assert.Equal(t, "All tests passed successfully", out["message"])
	require.NotEmpty(t, runner.calls)

	runner.exitCode = 1
	out = decode(t, dispatch(t, reg, RunUnitTestsToolName, map[string]any{
		"test_file":     testFile,
		"function_file": ws.StagingPath("add"),
	}))
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, true, out["needs_fix"])

	out = decode(t, dispatch(t, reg, FinalizeFunctionToolName, map[string]any{
		"function_name": "add",
		"target_file":   "calc.go",
	}))
	require.Equal(t, "success", out["status"])
	data, err := os.ReadFile(filepath.Join(ws.BaseDir(), "calc.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "return a + b")
}

func TestCreateFunction_SyntaxError(t *testing.T) {
	_, reg, _ := setup(t)

	out := decode(t, dispatch(t, reg, CreateFunctionToolName, map[string]any{
		"function_name": "broken",
		"function_code": "func broken( {",
		"file_path":     "broken.go",
	}))
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["message"], "Syntax error in function code")
	assert.NotNil(t, out["error_line"])
}

func TestSetupTestEnvironment(t *testing.T) {
	ws, reg, runner := setup(t)

	out := decode(t, dispatch(t, reg, SetupTestEnvironmentToolName, map[string]any{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, ws.TestEnvPath(), out["testenv_path"])
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"go", "mod", "init", workspace.TestEnvDir}, runner.calls[0])
}

func TestFileTools(t *testing.T) {
	_, reg, _ := setup(t)

	assert.Equal(t, "Successfully wrote to notes/a.txt",
		dispatch(t, reg, WriteFileToolName, map[string]any{"file_path": "notes/a.txt", "content": "hello"}))

	assert.Equal(t, "Content of notes/a.txt:\n```\nhello\n```",
		dispatch(t, reg, ReadFileToolName, map[string]any{"file_path": "notes/a.txt"}))

	assert.Equal(t, "Error: File 'missing.txt' does not exist.",
		dispatch(t, reg, ReadFileToolName, map[string]any{"file_path": "missing.txt"}))

	listing := dispatch(t, reg, ListDirectoryToolName, map[string]any{"dir_path": "notes"})
	assert.Equal(t, "Contents of notes:\n  [FILE] a.txt", listing)

	root := dispatch(t, reg, ListDirectoryToolName, map[string]any{})
	assert.Contains(t, root, "[DIR] notes")
}

func TestMissingArgumentIsReported(t *testing.T) {
	_, reg, _ := setup(t)
	content := dispatch(t, reg, ReadFileToolName, map[string]any{})
	assert.Contains(t, content, "Error executing read_file:")
}

func TestUpdateTaskStatus_NullIndexRejected(t *testing.T) {
	ws, reg, _ := setup(t)

	out := decode(t, dispatch(t, reg, CreateTaskListToolName, map[string]any{"tasks": `["A", "B"]`}))
	require.Equal(t, "success", out["status"])
	before, err := os.ReadFile(ws.Tasks().Path())
	require.NoError(t, err)

	content := dispatch(t, reg, UpdateTaskStatusToolName, map[string]any{"task_index": nil, "status": "completed"})
	assert.Contains(t, content, "Error executing update_task_status:")
	assert.Contains(t, content, "required field is missing")

	after, err := os.ReadFile(ws.Tasks().Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	tasks, err := ws.Tasks().List()
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, workspace.StatusPending, task.Status)
	}
}

func TestFileTools_RejectPathsOutsideProject(t *testing.T) {
	_, reg, _ := setup(t)

	content := dispatch(t, reg, ReadFileToolName, map[string]any{"file_path": "../../etc/passwd"})
	assert.Contains(t, content, "Error reading file '../../etc/passwd'")
	assert.Contains(t, content, "outside the workspace")

	listing := dispatch(t, reg, ListDirectoryToolName, map[string]any{"dir_path": "/"})
	assert.Contains(t, listing, "Error listing directory '/'")
	assert.Contains(t, listing, "outside the workspace")
}
