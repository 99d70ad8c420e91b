package testutil

import (
	"encoding/json"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

// NewAgent creates an agent with a minimal persona over llm.
func NewAgent(name string, llm model.Model, tools ...tool.Tool) *agent.Agent {
	return agent.New(name, llm, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText("You are {{.Agent}}.")
		o.Tools = tools
	})
}

// Repeating returns a scripted model that repeats its last response forever.
func Repeating(name string, responses ...model.Response) *model.ScriptedModel {
	m := model.NewScriptedModel(name, responses...)
	m.Repeat = true
	return m
}

// HandoffCall is a tool call of the handoff tool for target.
func HandoffCall(target string) core.ToolCall {
	return core.ToolCall{Name: tool.HandoffToolName(target), Arguments: "{}"}
}

// FinishCall is a tool call of the finish tool with summary.
func FinishCall(summary string) core.ToolCall {
	return Call(tool.FinishToolName, map[string]any{"summary": summary})
}

// Call is a tool call of name with args encoded as JSON.
func Call(name string, args map[string]any) core.ToolCall {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return core.ToolCall{Name: name, Arguments: string(raw)}
}
