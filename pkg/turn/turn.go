// Package turn folds the assistant's event stream into a single, progressively
// updated conversation turn.
//
// A Turn is owned by exactly one Reducer for its whole life. Readers such as
// the terminal renderer only ever see Snapshot copies handed to an Observer.
package turn

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/partchat/pkg/parts"
)

// ApologyText replaces the content of a turn that failed mid-stream.
const ApologyText = "Sorry, I encountered an error. Please try again."

// Turn is the mutable accumulator for one assistant reply.
type Turn struct {
	id    string
	query string

	content       strings.Builder
	products      []parts.Product
	compatibility *parts.Compatibility
	status        Status
	thinking      string

	errored bool
	cause   string

	startedAt  time.Time
	finishedAt time.Time
}

// New returns an empty pending turn answering query.
func New(query string) *Turn {
	return &Turn{
		id:        uuid.NewString(),
		query:     query,
		status:    StatusPending,
		startedAt: time.Now().UTC(),
	}
}

// ID returns the turn's unique identifier.
func (t *Turn) ID() string {
	return t.id
}

// Status returns the turn's current lifecycle state.
func (t *Turn) Status() Status {
	return t.status
}

// Snapshot returns a copy of the turn's current state that shares no memory
// with the turn.
func (t *Turn) Snapshot() Snapshot {
	s := Snapshot{
		ID:         t.id,
		Query:      t.query,
		Content:    t.content.String(),
		Products:   slices.Clone(t.products),
		Status:     t.status,
		Thinking:   t.thinking,
		Error:      t.errored,
		Cause:      t.cause,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
	if t.compatibility != nil {
		c := *t.compatibility
		s.Compatibility = &c
	}
	return s
}

// Snapshot is a read-only view of a Turn at one point in time.
type Snapshot struct {
	ID    string
	Query string

	// Content is the accumulated text in arrival order.
	Content string

	// Products are appended in arrival order, duplicates included.
	Products []parts.Product

	// Compatibility is the latest verdict, nil when none arrived.
	Compatibility *parts.Compatibility

	Status Status

	// Thinking is the transient progress text, empty when absent.
	Thinking string

	// Error is set when the turn was replaced after a failure.
	Error bool

	// Cause is the backend or transport message behind a failure. It is
	// diagnostic only and never shown in place of Content.
	Cause string

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the turn took, or has taken so far.
func (s Snapshot) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
