package generator

import (
	"errors"
	"sync"
)

var ErrStreamActive = errors.New("a model reply is still streaming")

// Conversation is an append-only log of committed turns plus at most one
// pending model turn that is being streamed. The pending turn is not part of
// the log until it is committed; on failure it is replaced by an error turn.
type Conversation struct {
	mu      sync.RWMutex
	turns   []Turn
	pending *Turn
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append commits a new turn. It fails while a reply is pending.
func (c *Conversation) Append(role Role, text string) (Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return Turn{}, ErrStreamActive
	}
	t := newTurn(role, text)
	c.turns = append(c.turns, t)
	return t, nil
}

// Turns returns a copy of the committed log, oldest first.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len counts committed turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Pending returns the in-flight model turn, if any.
func (c *Conversation) Pending() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pending == nil {
		return Turn{}, false
	}
	return *c.pending, true
}

// View returns the committed log followed by the pending turn, which is what a
// chat window shows while a reply streams in.
func (c *Conversation) View() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns), len(c.turns)+1)
	copy(out, c.turns)
	if c.pending != nil {
		out = append(out, *c.pending)
	}
	return out
}

// BeginPending opens an empty model turn.
func (c *Conversation) BeginPending() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return ErrStreamActive
	}
	t := newTurn(RoleModel, "")
	c.pending = &t
	return nil
}

// UpdatePending replaces the pending text with the full accumulated reply.
func (c *Conversation) UpdatePending(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Text = text
	}
}

// CommitPending moves the pending turn into the log.
func (c *Conversation) CommitPending() (Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Turn{}, false
	}
	t := *c.pending
	c.pending = nil
	c.turns = append(c.turns, t)
	return t, true
}

// FailPending drops the pending turn and commits a model turn carrying msg.
func (c *Conversation) FailPending(msg string) Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	t := newTurn(RoleModel, msg)
	c.turns = append(c.turns, t)
	return t
}
