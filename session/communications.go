package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/toolkit"
)

// CommunicationType classifies a message for display.
type CommunicationType string

const (
	TypeRequest  CommunicationType = "request"
	TypeResponse CommunicationType = "response"
	TypeHandoff  CommunicationType = "handoff"
	TypeCode     CommunicationType = "code"
	TypeTest     CommunicationType = "test"
	TypeFinalize CommunicationType = "finalize"
)

// Communication is one message seen as an exchange between participants.
type Communication struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Type      CommunicationType `json:"type"`
	Content   string            `json:"content"`
	ToolsUsed []string          `json:"tools_used"`
	Timestamp time.Time         `json:"timestamp"`
}

// AgentID turns an agent name into a short id: "Coder Agent" becomes "coder".
func AgentID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.TrimSuffix(id, " agent")
	return strings.ReplaceAll(id, " ", "_")
}

// Communications classifies msgs using the agent attribution of each message
// and the handoff sentinels in tool results.
func Communications(msgs []core.Message) []Communication {
	handoffs := map[string]string{}
	for _, m := range msgs {
		if m.Role != core.RoleTool {
			continue
		}
		if target, ok := tool.ExtractHandoffTarget(m.Content); ok {
			handoffs[m.ToolCallID] = target
		}
	}

	entry := ""
	for _, m := range msgs {
		if m.Agent != "" {
			entry = AgentID(m.Agent)
			break
		}
	}

	out := make([]Communication, 0, len(msgs))
	for i, m := range msgs {
		c := Communication{
			ID:        fmt.Sprintf("msg_%d", i),
			Content:   m.Content,
			ToolsUsed: []string{},
			Timestamp: m.Timestamp,
			Type:      TypeResponse,
		}

		switch m.Role {
		case core.RoleUser:
			c.From, c.To, c.Type = "user", entry, TypeRequest
		case core.RoleAssistant:
			c.From, c.To = AgentID(m.Agent), "user"
			for _, call := range m.ToolCalls {
				c.ToolsUsed = append(c.ToolsUsed, call.Name)
				if target, ok := handoffs[call.ID]; ok {
					c.To = AgentID(target)
				}
			}
			c.Type = classify(c.ToolsUsed...)
		case core.RoleTool:
			c.From, c.To = "system", AgentID(m.Agent)
			if m.Name != "" {
				c.ToolsUsed = append(c.ToolsUsed, m.Name)
			}
			c.Type = classify(c.ToolsUsed...)
			if target, ok := handoffs[m.ToolCallID]; ok {
				c.From, c.To, c.Type = AgentID(m.Agent), AgentID(target), TypeHandoff
			}
		default:
			c.From = string(m.Role)
		}

		out = append(out, c)
	}

	return out
}

// classify picks the most significant type among the tools used.
func classify(tools ...string) CommunicationType {
	kind := TypeResponse
	rank := 0
	for _, name := range tools {
		t, r := toolType(name)
		if r > rank {
			kind, rank = t, r
		}
	}
	return kind
}

func toolType(name string) (CommunicationType, int) {
	switch {
	case strings.HasPrefix(name, "transfer_to_"):
		return TypeHandoff, 4
	case name == toolkit.FinalizeFunctionToolName, name == tool.FinishToolName:
		return TypeFinalize, 3
	case name == toolkit.CreateFunctionToolName, name == toolkit.FixFunctionToolName:
		return TypeCode, 2
	case name == toolkit.SetupTestEnvironmentToolName,
		name == toolkit.WriteUnitTestsToolName,
		name == toolkit.RunUnitTestsToolName:
		return TypeTest, 1
	}
	return TypeResponse, 0
}
