package agent

import (
	"context"

	"github.com/hupe1980/agentcrew/internal/util"
)

// InstructionContext is what an instruction sees when it is resolved for a turn.
type InstructionContext struct {
	Context context.Context
	Agent   string
	// Vars are the template variables configured on the agent
	// (for example Workspace or the names of peer agents).
	Vars map[string]any
}

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(InstructionContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(InstructionContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ic InstructionContext) (string, error) { return f(ic) }

// Instruction represents either a static instruction template or a dynamic provider.
// Static text is rendered with text/template against InstructionContext.Vars.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(InstructionContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(ic InstructionContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ic)
	}
	vars := map[string]any{"Agent": ic.Agent}
	for k, v := range ic.Vars {
		vars[k] = v
	}
	return util.RenderTemplate(i.text, vars)
}
