package core

import "errors"

var (
	// ErrAgentNotFound is returned when the current agent name is not in the agent set.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrNoAgents is returned when a runner is constructed without agents.
	ErrNoAgents = errors.New("no agents configured")
	// ErrDuplicateAgent is returned when two agents share a name.
	ErrDuplicateAgent = errors.New("duplicate agent name")
	// ErrIterationLimit is returned by IterationLimiter.Increment once the cap is passed.
	ErrIterationLimit = errors.New("iteration limit reached")
)
