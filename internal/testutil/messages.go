package testutil

import (
	"fmt"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
)

// ConversationBuilder builds message histories fluently:
//
//	msgs := NewConversationBuilder().User("hi").Handoff("Orchestrator Agent", "Coder Agent").Build()
type ConversationBuilder struct {
	msgs []core.Message
	next int
}

// NewConversationBuilder returns an empty builder.
func NewConversationBuilder() *ConversationBuilder { return &ConversationBuilder{} }

func (b *ConversationBuilder) callID() string {
	b.next++
	return fmt.Sprintf("call_%d", b.next)
}

// User appends a user message.
func (b *ConversationBuilder) User(text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(text))
	return b
}

// Assistant appends a plain assistant message from agent.
func (b *ConversationBuilder) Assistant(agent, text string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(agent, text))
	return b
}

// ToolUse appends an assistant message calling name followed by its result.
func (b *ConversationBuilder) ToolUse(agent, name, result string) *ConversationBuilder {
	id := b.callID()
	b.msgs = append(b.msgs,
		core.NewAssistantMessage(agent, "", core.ToolCall{ID: id, Name: name, Arguments: "{}"}),
		core.NewToolMessage(agent, id, name, result),
	)
	return b
}

// Handoff appends a handoff from agent to target: the call and its sentinel result.
func (b *ConversationBuilder) Handoff(agent, target string) *ConversationBuilder {
	return b.ToolUse(agent, tool.HandoffToolName(target), tool.HandoffText(target))
}

// Build returns the messages.
func (b *ConversationBuilder) Build() []core.Message {
	return append([]core.Message(nil), b.msgs...)
}
