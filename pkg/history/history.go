// Package history keeps the bounded conversation context replayed to the
// backend with each request.
package history

import "slices"

// DefaultLimit is the number of most recent messages sent as context.
const DefaultLimit = 5

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a context entry. Only role and content are ever forwarded;
// products and verdicts stay on the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is an oldest-first window over the most recent messages of a
// session. It is not safe for concurrent use; a session appends to it only
// between turns.
type History struct {
	limit    int
	messages []Message
}

// New returns a History holding at most limit messages, seeded with seed.
// A limit below one falls back to DefaultLimit.
func New(limit int, seed ...Message) *History {
	if limit < 1 {
		limit = DefaultLimit
	}

	h := &History{limit: limit}
	h.Append(seed...)
	return h
}

// Append records msgs in order, evicting the oldest entries beyond the limit.
// An assistant turn that carried only products keeps its slot with empty
// content.
func (h *History) Append(msgs ...Message) {
	h.messages = append(h.messages, msgs...)

	if over := len(h.messages) - h.limit; over > 0 {
		h.messages = slices.Delete(h.messages, 0, over)
	}
}

// Window returns a copy of the retained messages, oldest first.
func (h *History) Window() []Message {
	return slices.Clone(h.messages)
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Limit returns the maximum number of retained messages.
func (h *History) Limit() int {
	return h.limit
}

// Reset drops every message.
func (h *History) Reset() {
	h.messages = nil
}
