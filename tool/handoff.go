package tool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

const handoffPrefix = "Transferred to: "

var handoffPattern = regexp.MustCompile(`Transferred to: (.*?)(?:\.|$)`)

// HandoffText returns the sentinel text a handoff tool answers with.
func HandoffText(target string) string {
	return fmt.Sprintf("%s%s. Adopt persona immediately.", handoffPrefix, target)
}

// ExtractHandoffTarget returns the agent named by the last handoff sentinel
// in text: the characters between "Transferred to: " and the next '.' (or the
// end of the text), trimmed of surrounding whitespace.
func ExtractHandoffTarget(text string) (string, bool) {
	if !strings.Contains(text, handoffPrefix) {
		return "", false
	}
	matches := handoffPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	target := strings.TrimSpace(matches[len(matches)-1][1])
	if target == "" {
		return "", false
	}
	return target, true
}

// HandoffToolName derives the tool name for a handoff to target:
// "transfer_to_" + lower-cased target with spaces replaced by underscores.
func HandoffToolName(target string) string {
	return "transfer_to_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(target)), " ", "_")
}

// handoffTool is a zero-argument tool that transfers control to a fixed agent.
type handoffTool struct {
	target      string
	description string
}

// NewHandoffTool creates a tool that, when called, records a handoff to target
// and answers with the sentinel text. Each call returns a new tool value.
func NewHandoffTool(target, description string) Tool {
	target = strings.TrimSpace(target)
	if description == "" {
		description = "Transfer control to " + target
	}
	return &handoffTool{target: target, description: description}
}

func (t *handoffTool) Name() string { return HandoffToolName(t.target) }

func (t *handoffTool) Description() string { return t.description }

func (t *handoffTool) Parameters() map[string]any { return Schema() }

// Target returns the agent the tool hands control to.
func (t *handoffTool) Target() string { return t.target }

func (t *handoffTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	tc.TransferToAgent(t.target)
	return HandoffText(t.target), nil
}

// FinishToolName is the name of the tool created by NewFinishTool.
const FinishToolName = "finish_workflow"

// NewFinishTool creates the tool a coordinating agent calls once every task is
// completed. It records a finish effect carrying the optional summary.
func NewFinishTool() Tool {
	return NewFunctionTool(
		FinishToolName,
		"Declare the workflow complete once every task is finished. Provide a short summary of the outcome.",
		[]Param{Optional("summary", "string", "Short summary of what was accomplished", "")},
		func(tc *core.ToolContext, args Args) (any, error) {
			summary := args.String("summary")
			tc.Finish(summary)
			if summary == "" {
				return "Workflow finished.", nil
			}
			return "Workflow finished: " + summary, nil
		},
	)
}
