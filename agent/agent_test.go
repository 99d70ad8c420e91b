package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

var _ core.Agent = (*Agent)(nil)

func failingTool() tool.Tool {
	return tool.NewFunctionTool("explode", "Always fails", nil, func(*core.ToolContext, tool.Args) (any, error) {
		return nil, errors.New("kaboom")
	})
}

func TestAgent_RunPlainText(t *testing.T) {
	llm := model.NewScriptedModel("mock", model.Text("Hello there"))
	var printed []string
	a := New("Coder Agent", llm, func(o *Options) {
		o.Instruction = NewInstructionFromText("You are {{.Agent}}.")
		o.Verbose = true
		o.Printer = func(agent, text string) { printed = append(printed, agent+": "+text) }
	})

	history := []core.Message{core.NewUserMessage("hi")}
	res, err := a.Run(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "Coder Agent", res.Next)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, core.RoleAssistant, res.Messages[0].Role)
	assert.Equal(t, "Hello there", res.Messages[0].Content)
	assert.Equal(t, "Coder Agent", res.Messages[0].Agent)
	assert.True(t, res.Idle())
	assert.Equal(t, []string{"Coder Agent: Hello there"}, printed)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You are Coder Agent.", reqs[0].Instructions)
	assert.Len(t, reqs[0].Messages, 1)
	assert.Empty(t, reqs[0].Tools)
	assert.Len(t, history, 1, "history is not mutated")
}

func TestAgent_RunToolCallsInOrderWithHandoff(t *testing.T) {
	llm := model.NewScriptedModel("mock", model.Calls("",
		core.ToolCall{ID: "c1", Name: "transfer_to_tester_agent"},
		core.ToolCall{ID: "c2", Name: "explode", Arguments: "{}"},
		core.ToolCall{ID: "c3", Name: "missing"},
		core.ToolCall{Name: "transfer_to_coder_agent"},
	))

	a := New("Orchestrator", llm, func(o *Options) {
		o.Tools = []tool.Tool{
			tool.NewHandoffTool("Tester Agent", ""),
			tool.NewHandoffTool("Coder Agent", ""),
			failingTool(),
		}
	})

	res, err := a.Run(context.Background(), []core.Message{core.NewUserMessage("go")})
	require.NoError(t, err)

	require.Len(t, res.Messages, 5)
	assistant := res.Messages[0]
	require.Len(t, assistant.ToolCalls, 4)
	assert.NotEmpty(t, assistant.ToolCalls[3].ID, "missing call ids are generated")

	for i, msg := range res.Messages[1:] {
		assert.Equal(t, core.RoleTool, msg.Role)
		assert.Equal(t, assistant.ToolCalls[i].ID, msg.ToolCallID)
	}
	assert.Equal(t, "Transferred to: Tester Agent. Adopt persona immediately.", res.Messages[1].Content)
	assert.True(t, strings.HasPrefix(res.Messages[2].Content, "Error executing explode:"))
	assert.Equal(t, "Error: Function missing not found", res.Messages[3].Content)

	assert.Equal(t, "Coder Agent", res.Next, "last handoff wins")
	assert.True(t, res.Handoff)
	assert.Equal(t, 4, res.ToolCalls)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].Tools, 3)
}

func TestAgent_RunFinish(t *testing.T) {
	llm := model.NewScriptedModel("mock", model.Calls("", core.ToolCall{ID: "f", Name: tool.FinishToolName, Arguments: `{"summary":"shipped"}`}))
	a := New("Orchestrator", llm, func(o *Options) { o.Tools = []tool.Tool{tool.NewFinishTool()} })

	res, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Finished)
	assert.Equal(t, "shipped", res.Summary)
	assert.Equal(t, "Orchestrator", res.Next)
}

func TestAgent_RunModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	llm := model.NewScriptedModel("mock").FailAt(0, boom)
	a := New("Coder Agent", llm)

	_, err := a.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `agent "Coder Agent"`)
}

func TestAgent_RunInstructionError(t *testing.T) {
	a := New("X", model.NewScriptedModel("mock", model.Text("never")), func(o *Options) {
		o.Instruction = NewInstructionFromFunc(func(InstructionContext) (string, error) { return "", errors.New("no persona") })
	})
	_, err := a.Run(context.Background(), nil)
	assert.ErrorContains(t, err, "no persona")
}

func TestAgent_StreamingPartials(t *testing.T) {
	llm := model.NewScriptedModel("mock", model.Text("streamed"))
	var deltas []string
	a := New("Research Agent", llm, func(o *Options) {
		o.Stream = true
		o.OnPartial = func(agent, d string) { deltas = append(deltas, agent+":"+d) }
	})

	res, err := a.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "streamed", res.Messages[0].Content)
	assert.Equal(t, []string{"Research Agent:streamed"}, deltas)
}

func TestAgent_ToolManagementAndConfig(t *testing.T) {
	a := New("Tester Agent", model.NewScriptedModel("gpt-test"), func(o *Options) {
		o.Instruction = NewInstructionFromText("Test code in {{.Workspace}}")
		o.Vars = map[string]any{"Workspace": ".agent_workspace"}
	})

	h := tool.NewHandoffTool("Orchestrator", "")
	a.AddTool(h, h)
	a.AddTool(failingTool())
	assert.Equal(t, []string{"transfer_to_orchestrator", "explode"}, a.ToolNames())

	assert.True(t, a.RemoveTool("explode"))
	assert.False(t, a.RemoveTool("explode"))

	cfg := a.Config()
	assert.Equal(t, "Tester Agent", cfg.Name)
	assert.Equal(t, "gpt-test", cfg.Model)
	assert.Equal(t, "Test code in .agent_workspace", cfg.Instructions)
	assert.Equal(t, 1, cfg.NumTools)

	a.UpdateInstructions("New persona")
	inst, err := a.Instructions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New persona", inst)
}

func TestInstruction(t *testing.T) {
	static := NewInstructionFromText("static")
	assert.True(t, static.IsStatic())
	out, err := static.Resolve(InstructionContext{})
	require.NoError(t, err)
	assert.Equal(t, "static", out)

	dyn := NewInstructionFromProvider(Func(func(ic InstructionContext) (string, error) { return "dyn " + ic.Agent, nil }))
	assert.False(t, dyn.IsStatic())
	out, err = dyn.Resolve(InstructionContext{Agent: "A"})
	require.NoError(t, err)
	assert.Equal(t, "dyn A", out)
}
