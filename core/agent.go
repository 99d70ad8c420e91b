package core

import "context"

// Agent is the contract the conversation runner drives. An agent receives
// the full shared history, performs exactly one model round (including any
// tool dispatch) and reports which agent should act next.
//
// Implementations must not mutate history and must not append to it; the
// runner appends TurnResult.Messages itself.
type Agent interface {
	Name() string
	Run(ctx context.Context, history []Message) (TurnResult, error)
}

// TurnResult is the outcome of a single agent turn.
type TurnResult struct {
	// Next is the agent that should act next. Equal to the acting agent when
	// no handoff happened.
	Next string
	// Messages are the new messages of the turn in order: one assistant
	// message followed by one tool message per requested tool call.
	Messages []Message
	// ToolCalls is the number of tool calls dispatched during the turn.
	ToolCalls int
	// Handoff is true when a handoff tool ran during the turn.
	Handoff bool
	// Finished is true when a finish tool ran during the turn.
	Finished bool
	// Summary carries the finish summary, if any.
	Summary string
}

// Idle reports whether the turn neither used tools nor changed control.
func (r TurnResult) Idle() bool { return r.ToolCalls == 0 && !r.Handoff && !r.Finished }
