package turn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/partchat/pkg/logger"
	"github.com/papercomputeco/partchat/pkg/sse"
)

// Source is a pull-based event sequence. Next returns nil, nil once the
// sequence is exhausted and a non-nil error only when ctx is done.
// *sse.Reader satisfies Source.
type Source interface {
	Next(ctx context.Context) (*sse.Event, error)
}

// Observer is notified with a fresh snapshot after every applied event.
type Observer func(Snapshot)

// truncatedMessage is recorded when a source ends without a terminal event.
const truncatedMessage = "event stream ended before completion"

// Reducer applies events to a single Turn.
type Reducer struct {
	turn   *Turn
	logger *slog.Logger
	now    func() time.Time
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithLogger sets the logger used for rejected events.
func WithLogger(l *slog.Logger) ReducerOption {
	return func(r *Reducer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp the finish time.
func WithClock(now func() time.Time) ReducerOption {
	return func(r *Reducer) {
		r.now = now
	}
}

// NewReducer returns a Reducer that exclusively owns t.
func NewReducer(t *Turn, opts ...ReducerOption) *Reducer {
	r := &Reducer{
		turn:   t,
		logger: logger.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("turn_id", t.id)
	return r
}

// Turn returns the turn being reduced.
func (r *Reducer) Turn() *Turn {
	return r.turn
}

// Apply folds a single event into the turn. It returns ErrTurnTerminal when
// the turn is already done or errored and ErrUnknownKind for events it does
// not understand; in both cases the turn is left untouched.
func (r *Reducer) Apply(ev sse.Event) error {
	t := r.turn

	if t.status.Terminal() {
		r.logger.Warn("rejecting event for finished turn",
			"kind", string(ev.Kind),
			"status", t.status.String(),
		)
		return fmt.Errorf("%w: %s event after %s", ErrTurnTerminal, ev.Kind, t.status)
	}

	switch ev.Kind {
	case sse.KindThinking:
		t.thinking = ev.Text
		t.status = StatusThinking

	case sse.KindText:
		t.content.WriteString(ev.Text)
		t.thinking = ""
		t.status = StatusStreaming

	case sse.KindProduct:
		if ev.Product != nil {
			t.products = append(t.products, *ev.Product)
		}
		r.leavePending()

	case sse.KindCompatibility:
		if ev.Compatibility != nil {
			c := *ev.Compatibility
			t.compatibility = &c
		}
		r.leavePending()

	case sse.KindDone:
		t.thinking = ""
		t.status = StatusDone
		t.finishedAt = r.now()

	case sse.KindError:
		cause := ""
		if ev.Error != nil {
			cause = ev.Error.Error
		}
		if ev.Cause != nil {
			cause = ev.Cause.Error()
		}
		r.fail(cause)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}

	return nil
}

func (r *Reducer) leavePending() {
	if r.turn.status == StatusPending {
		r.turn.status = StatusStreaming
	}
}

// fail replaces everything accumulated so far with the apology. Partial
// content may be cut mid-sentence and is never presented as final.
func (r *Reducer) fail(cause string) {
	t := r.turn

	t.content.Reset()
	t.content.WriteString(ApologyText)
	t.products = nil
	t.compatibility = nil
	t.thinking = ""
	t.errored = true
	t.cause = cause
	t.status = StatusErrored
	t.finishedAt = r.now()
}

// Run pulls events from src until the turn reaches a terminal state, calling
// observer synchronously after each applied event. Rejected and unknown
// events are logged and skipped without a notification.
//
// A source that ends before a terminal event fails the turn. When ctx is done
// Run returns ctx's error at once and never calls observer again.
func (r *Reducer) Run(ctx context.Context, src Source, observer Observer) (Snapshot, error) {
	for !r.turn.status.Terminal() {
		ev, err := src.Next(ctx)
		if err != nil {
			return r.turn.Snapshot(), err
		}
		if err := ctx.Err(); err != nil {
			return r.turn.Snapshot(), err
		}

		if ev == nil {
			r.logger.Warn("event source ended before a terminal event",
				"status", r.turn.status.String(),
			)
			ev = &sse.Event{
				Kind:  sse.KindError,
				Error: &sse.ErrorPayload{Error: truncatedMessage},
			}
		}

		if err := r.Apply(*ev); err != nil {
			r.logger.Debug("event skipped", "kind", string(ev.Kind), "error", err)
			continue
		}

		if ev.Kind == sse.KindError {
			r.logger.Warn("turn failed", "cause", r.turn.cause)
		}

		if observer != nil {
			observer(r.turn.Snapshot())
		}
	}

	return r.turn.Snapshot(), nil
}
