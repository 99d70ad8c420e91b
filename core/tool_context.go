package core

import (
	"context"
	"strings"

	"github.com/hupe1980/agentcrew/logging"
)

// ToolContext provides a constrained surface for tool implementations invoked
// by an agent. Tools signal control changes (handoff, finish) by recording an
// Effect instead of returning magic text; the registry reads it after the call.
type ToolContext struct {
	ctx            context.Context
	functionCallID string
	agentName      string
	effect         Effect

	*loggerAdapter
}

// NewToolContext constructs a tool context for one function call made by agentName.
func NewToolContext(ctx context.Context, agentName, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		functionCallID: functionCallID,
		agentName:      agentName,
		effect:         Continue(),
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// AgentName returns the name of the agent that requested the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// Effect returns the effect recorded so far.
func (tc *ToolContext) Effect() Effect { return tc.effect }

// TransferToAgent signals the runner to hand control to another agent.
// Surrounding whitespace in name is ignored.
func (tc *ToolContext) TransferToAgent(name string) {
	name = strings.TrimSpace(name)
	tc.effect = HandoffTo(name)
	tc.LogInfo("tool.transfer.request", "from_agent", tc.agentName, "to_agent", name, "function_call_id", tc.functionCallID)
}

// Finish signals that the workflow is complete.
func (tc *ToolContext) Finish(summary string) {
	tc.effect = Finish(summary)
	tc.LogInfo("tool.finish.request", "agent", tc.agentName, "function_call_id", tc.functionCallID)
}
