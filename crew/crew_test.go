package crew

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/workspace"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	ws, err := workspace.New("", func(o *workspace.Options) { o.BaseDir = t.TempDir() })
	require.NoError(t, err)
	return Deps{Workspace: ws, Model: model.NewScriptedModel("scripted")}
}

func TestNew_AgentsAndTools(t *testing.T) {
	agents, err := New(newDeps(t))
	require.NoError(t, err)
	require.Len(t, agents, 5)

	byName := map[string][]string{}
	for i, a := range agents {
		assert.Equal(t, Names[i], a.Name())
		byName[a.Name()] = a.ToolNames()
	}

	assert.ElementsMatch(t, []string{
		"read_file", "list_directory", "finalize_function",
		"create_task_list", "update_task_status", "get_tasks",
		tool.FinishToolName,
		"transfer_to_coder_agent", "transfer_to_tester_agent",
		"transfer_to_database_agent", "transfer_to_research_agent",
	}, byName[Orchestrator])
	assert.ElementsMatch(t, []string{"create_function", "fix_function", "transfer_to_orchestrator_agent"}, byName[Coder])
	assert.ElementsMatch(t, []string{"setup_test_environment", "write_unit_tests", "run_unit_tests", "transfer_to_orchestrator_agent"}, byName[Tester])
	assert.ElementsMatch(t, []string{"kg_updater", "kg_retriever", "transfer_to_orchestrator_agent"}, byName[Database])
	assert.ElementsMatch(t, []string{"web_search", "fetch_page", "transfer_to_orchestrator_agent"}, byName[Research])
}

func TestNew_InstructionsRender(t *testing.T) {
	deps := newDeps(t)
	agents, err := New(deps)
	require.NoError(t, err)

	for _, a := range agents {
		text, err := a.Instructions(context.Background())
		require.NoError(t, err, a.Name())
		assert.Contains(t, text, "You are the "+a.Name())
		assert.NotContains(t, text, "<no value>")
	}

	orch, err := agents[0].Instructions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, orch, deps.Workspace.Dir())
}

func TestNew_PerAgentOverrides(t *testing.T) {
	deps := newDeps(t)
	coderModel := model.NewScriptedModel("coder-model", model.Text("done"))

	agents, err := New(deps, func(o *Options) {
		o.Clients = map[string]model.Model{Coder: coderModel}
		o.Models = map[string]string{Tester: "gpt-4o"}
		o.Instructions = map[string]string{Research: "You are the {{.Agent}}. Be brief."}
	})
	require.NoError(t, err)

	assert.Equal(t, "coder-model", agents[1].Model())
	assert.Equal(t, "gpt-4o", agents[2].Model())

	text, err := agents[4].Instructions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "You are the Research Agent. Be brief.", text)

	res, err := agents[1].Run(context.Background(), []core.Message{core.NewUserMessage("write add")})
	require.NoError(t, err)
	assert.Equal(t, Coder, res.Next)
	assert.Len(t, coderModel.Requests(), 1)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Deps{Model: model.NewScriptedModel("m")})
	assert.Error(t, err)

	deps := newDeps(t)
	deps.Model = nil
	_, err = New(deps)
	assert.Error(t, err)
}

func TestSpecialistHandsBack(t *testing.T) {
	deps := newDeps(t)
	deps.Model = model.NewScriptedModel("m", model.Calls("", core.ToolCall{ID: "c1", Name: "transfer_to_orchestrator_agent", Arguments: "{}"}))

	agents, err := New(deps)
	require.NoError(t, err)

	res, err := agents[3].Run(context.Background(), []core.Message{core.NewUserMessage("store this")})
	require.NoError(t, err)
	assert.Equal(t, Orchestrator, res.Next)
	assert.True(t, res.Handoff)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Transferred to: Orchestrator Agent. Adopt persona immediately.", res.Messages[1].Content)
}

func TestNew_AgentLogsCarryAgentName(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf})

	deps := newDeps(t)
	deps.Model = model.NewScriptedModel("m", model.Calls("", core.ToolCall{ID: "c1", Name: "transfer_to_orchestrator_agent", Arguments: "{}"}))

	agents, err := New(deps, func(o *Options) { o.Logger = logger })
	require.NoError(t, err)

	buf.Reset()
	_, err = agents[3].Run(context.Background(), []core.Message{core.NewUserMessage("store this")})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, Database, entry["agent"], line)
		assert.Equal(t, 1, strings.Count(line, `"agent":`), line)
	}
}
