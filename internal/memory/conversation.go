// Package memory keeps a bounded history of question/answer turns.
package memory

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the number of turns kept when no limit is configured.
const DefaultCapacity = 5

// Turn is one question and the answer given to it.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Format renders the turn as it appears in a prompt.
func (t Turn) Format() string {
	return fmt.Sprintf("Human: %s\nAI Assistant: %s", t.Question, t.Answer)
}

// Conversation is a fixed-capacity ring buffer of turns, oldest first.
// Appending at capacity evicts exactly the oldest turn. A capacity of zero or
// less disables the memory: appends are dropped.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
	head  int // index of the oldest turn
	size  int
}

// NewConversation creates an empty conversation holding at most capacity turns.
func NewConversation(capacity int) *Conversation {
	if capacity < 0 {
		capacity = 0
	}
	return &Conversation{turns: make([]Turn, capacity)}
}

// Append records a turn, evicting the oldest one when full.
func (c *Conversation) Append(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	capacity := len(c.turns)
	if capacity == 0 {
		return
	}
	if c.size < capacity {
		c.turns[(c.head+c.size)%capacity] = Turn{Question: question, Answer: answer}
		c.size++
		return
	}
	c.turns[c.head] = Turn{Question: question, Answer: answer}
	c.head = (c.head + 1) % capacity
}

// Snapshot returns a copy of the turns, oldest first.
func (c *Conversation) Snapshot() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, c.size)
	for i := 0; i < c.size; i++ {
		out[i] = c.turns[(c.head+i)%len(c.turns)]
	}
	return out
}

// Clear removes all turns.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.turns {
		c.turns[i] = Turn{}
	}
	c.head, c.size = 0, 0
}

// Len returns the number of stored turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Capacity returns the maximum number of turns kept.
func (c *Conversation) Capacity() int {
	return len(c.turns)
}
