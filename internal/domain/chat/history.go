// Package chat implements the conversational query-orchestration pipeline:
// history normalization, intent-driven routing, and the four terminal
// answer strategies' shared contracts.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in a conversation.
// CreatedAt is optional; when present across a history it must be
// non-decreasing.
type Turn struct {
	Role      Role
	Text      string
	CreatedAt time.Time
}

// History is the ordered sequence of turns for one pipeline run.
// Insertion order is chronological order. The pipeline owns the buffer for
// the duration of a request; it is never shared across requests.
type History struct {
	turns []Turn
}

// NewHistory validates externally supplied prior turns and returns a
// normalized History. It rejects rather than reorders: unrecognized roles
// or non-chronological timestamps yield ErrInvalidHistory.
func NewHistory(prior []Turn) (*History, error) {
	var lastAt time.Time
	for i, t := range prior {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: turn %d has unrecognized role %q", ErrInvalidHistory, i, t.Role)
		}
		if !t.CreatedAt.IsZero() {
			if !lastAt.IsZero() && t.CreatedAt.Before(lastAt) {
				return nil, fmt.Errorf("%w: turn %d predates turn %d", ErrInvalidHistory, i, i-1)
			}
			lastAt = t.CreatedAt
		}
	}

	h := &History{turns: make([]Turn, len(prior))}
	copy(h.turns, prior)
	return h, nil
}

// Append adds a turn to the end of the history.
func (h *History) Append(role Role, text string) {
	h.turns = append(h.turns, Turn{Role: role, Text: text})
}

// Turns returns a copy of the current turn sequence.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int { return len(h.turns) }

// RecentLines renders the last n turns as "role: text" lines, used as the
// short disambiguation window for intent classification.
func (h *History) RecentLines(n int) []string {
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(h.turns)-start)
	for _, t := range h.turns[start:] {
		text := strings.ReplaceAll(t.Text, "\n", " ")
		out = append(out, string(t.Role)+": "+text)
	}
	return out
}
