package core

// EffectKind enumerates the control effects a tool call can have on the loop.
type EffectKind int

const (
	// EffectContinue leaves control with the current agent.
	EffectContinue EffectKind = iota
	// EffectHandoff transfers control to Effect.Target.
	EffectHandoff
	// EffectFinish ends a programmatic workflow.
	EffectFinish
)

// String returns the string representation of the effect kind.
func (k EffectKind) String() string {
	switch k {
	case EffectHandoff:
		return "handoff"
	case EffectFinish:
		return "finish"
	default:
		return "continue"
	}
}

// Effect is the typed result a tool records on its ToolContext next to its
// textual output.
type Effect struct {
	Kind    EffectKind
	Target  string // agent name for EffectHandoff
	Summary string // optional summary for EffectFinish
}

// Continue returns the neutral effect.
func Continue() Effect { return Effect{Kind: EffectContinue} }

// HandoffTo returns a handoff effect to the named agent.
func HandoffTo(name string) Effect { return Effect{Kind: EffectHandoff, Target: name} }

// Finish returns a finish effect.
func Finish(summary string) Effect { return Effect{Kind: EffectFinish, Summary: summary} }

// IsHandoff reports whether e transfers control.
func (e Effect) IsHandoff() bool { return e.Kind == EffectHandoff && e.Target != "" }

// IsFinish reports whether e ends the workflow.
func (e Effect) IsFinish() bool { return e.Kind == EffectFinish }
