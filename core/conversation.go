package core

import "sync"

// Conversation is the append-only message buffer shared by every agent of a
// run. It is safe for concurrent access: the runner appends while observers
// (for example the HTTP bridge) read snapshots.
//
// Contract:
//   - messages are never reordered, edited or removed (except by Reset)
//   - Snapshot and Last return copies, never the backing slice.
type Conversation struct {
	messages []Message
	mu       sync.RWMutex
}

// NewConversation creates a conversation seeded with the given messages.
func NewConversation(seed ...Message) *Conversation {
	c := &Conversation{}
	c.Append(seed...)
	return c
}

// Append adds messages to the end of the buffer.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		c.messages = append(c.messages, m.Clone())
	}
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message and false when the buffer is empty.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}

// Snapshot returns a defensive copy of all messages.
func (c *Conversation) Snapshot() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Tail returns a copy of at most the last n messages; n <= 0 returns all of them.
func (c *Conversation) Tail(n int) []Message {
	all := c.Snapshot()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Reset empties the buffer. Only session level reset should call it.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
