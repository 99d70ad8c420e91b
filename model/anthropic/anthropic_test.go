package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	history := []core.Message{
		core.NewUserMessage("build it"),
		core.NewAssistantMessage("Orchestrator", "delegating",
			core.ToolCall{ID: "t1", Name: "create_task_list", Arguments: `{"tasks":"[\"a\"]"}`},
			core.ToolCall{ID: "t2", Name: "transfer_to_coder_agent"},
		),
		core.NewToolMessage("Orchestrator", "t1", "create_task_list", "ok"),
		core.NewToolMessage("Orchestrator", "t2", "transfer_to_coder_agent", "Transferred to: Coder Agent. Adopt persona immediately."),
		core.NewAssistantMessage("Coder", "on it"),
	}

	msgs := buildMessages(history)
	require.Len(t, msgs, 4)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Len(t, msgs[1].Content, 3, "text plus two tool_use blocks")
	assert.Equal(t, "user", string(msgs[2].Role))
	assert.Len(t, msgs[2].Content, 2, "both tool results merged into one user turn")
	assert.Equal(t, "assistant", string(msgs[3].Role))
}

func TestToolInput(t *testing.T) {
	assert.Equal(t, map[string]any{}, toolInput(""))
	assert.Equal(t, map[string]any{}, toolInput("not json"))
	assert.Equal(t, map[string]any{"a": float64(1)}, toolInput(`{"a":1}`))
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]core.ToolSpec{{
		Name:        "read_file",
		Description: "Read a file",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"file_path": map[string]any{"type": "string"}},
			"required":   []string{"file_path"},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "read_file", tools[0].OfTool.Name)
	assert.Equal(t, []string{"file_path"}, tools[0].OfTool.InputSchema.Required)
}

func TestBuildParams_SystemAndOverride(t *testing.T) {
	m := NewModelFromClient(nil)
	params := m.buildParams(model.Request{Model: "claude-3-haiku-20240307", Instructions: "persona"})
	assert.Equal(t, "claude-3-haiku-20240307", string(params.Model))
	require.Len(t, params.System, 1)
	assert.Equal(t, "persona", params.System[0].Text)
}
