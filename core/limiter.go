package core

import (
	"fmt"
	"sync"
)

// IterationLimiter enforces a maximum number of agent turns per run.
type IterationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewIterationLimiter creates a new limiter with a max number of turns.
// If max == 0, unlimited turns are allowed.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Increment records one turn and returns ErrIterationLimit once the limit is exceeded.
func (l *IterationLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		l.count = l.max
		return fmt.Errorf("%w: %d", ErrIterationLimit, l.max)
	}

	return nil
}

// Count returns the number of turns recorded.
func (l *IterationLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many turns are left before hitting the limit.
func (l *IterationLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return l.max - l.count
}

// Max returns the configured limit.
func (l *IterationLimiter) Max() int { return l.max }
