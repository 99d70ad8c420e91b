package core

import "time"

// Role identifies the author class of a Message.
type Role string

const (
	// RoleSystem marks the per-turn persona prompt. It is never stored in a Conversation.
	RoleSystem Role = "system"
	// RoleUser marks human (or seeded) input.
	RoleUser Role = "user"
	// RoleAssistant marks model output, optionally carrying tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of one tool call.
	RoleTool Role = "tool"
)

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // serialized JSON object
}

// Message is one record of the shared conversation.
//
// Agent and Timestamp are bookkeeping for observers and are not sent to providers.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"` // tool name on tool messages
	Agent      string     `json:"agent,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage creates an assistant message attributed to agent.
func NewAssistantMessage(agent, content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, Agent: agent, Timestamp: time.Now()}
}

// NewToolMessage creates the result message for the tool call callID.
func NewToolMessage(agent, callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name, Agent: agent, Timestamp: time.Now()}
}

// ToolSpec is the provider neutral description of a callable tool.
// Parameters is a JSON schema object: {"type":"object","properties":{...},"required":[...]}.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
