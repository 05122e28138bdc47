// Package session drives chat turns against the backend and keeps the
// conversation context between them.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/papercomputeco/partchat/pkg/client"
	"github.com/papercomputeco/partchat/pkg/eventstream"
	"github.com/papercomputeco/partchat/pkg/eventstream/nop"
	"github.com/papercomputeco/partchat/pkg/history"
	"github.com/papercomputeco/partchat/pkg/logger"
	"github.com/papercomputeco/partchat/pkg/sse"
	"github.com/papercomputeco/partchat/pkg/turn"
)

// Streamer is the backend surface a Session needs. *client.Client
// satisfies it.
type Streamer interface {
	Stream(ctx context.Context, req client.Request) *sse.Reader
	Send(ctx context.Context, req client.Request) (*client.Reply, error)
}

// Config configures a Session.
type Config struct {
	Client Streamer

	// HistoryLimit is the number of messages replayed as context.
	// Defaults to history.DefaultLimit.
	HistoryLimit int

	// Greeting seeds the history as the first assistant message. Empty
	// disables the seed.
	Greeting string

	// Publisher receives a TurnCompletedEvent for every finished turn.
	// Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Session is one conversation. Turns run strictly one at a time.
type Session struct {
	id        string
	client    Streamer
	publisher eventstream.Publisher
	greeting  string
	logger    *slog.Logger

	inFlight atomic.Bool

	mu             sync.Mutex
	history        *history.History
	conversationID string
}

// New returns a Session with a fresh id.
func New(c *Config) *Session {
	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	pub := c.Publisher
	if pub == nil {
		pub = nop.NewPublisher()
	}

	id := uuid.NewString()
	s := &Session{
		id:        id,
		client:    c.Client,
		publisher: pub,
		greeting:  c.Greeting,
		logger:    l.With("session_id", id),
	}
	s.history = history.New(c.HistoryLimit, s.seed()...)
	return s
}

func (s *Session) seed() []history.Message {
	if strings.TrimSpace(s.greeting) == "" {
		return nil
	}
	return []history.Message{{Role: history.RoleAssistant, Content: s.greeting}}
}

// ID returns the session id attached to published events.
func (s *Session) ID() string {
	return s.id
}

// Greeting returns the configured greeting.
func (s *Session) Greeting() string {
	return s.greeting
}

// ConversationID returns the backend conversation id, if one was returned.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// History returns a copy of the current context window.
func (s *Session) History() []history.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Window()
}

// Reset clears the context window back to the greeting and forgets the
// conversation id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset()
	s.history.Append(s.seed()...)
	s.conversationID = ""
}

// Submit streams the answer to query, calling observer after every applied
// event. The returned snapshot is terminal unless ctx was cancelled, in
// which case ctx's error is returned and the history is left untouched.
func (s *Session) Submit(ctx context.Context, query string, observer turn.Observer) (turn.Snapshot, error) {
	return s.run(ctx, query, true, observer, func(req client.Request) turn.Source {
		return s.client.Stream(ctx, req)
	})
}

// Ask answers query with the non-streaming endpoint. Products, verdict and
// text are replayed through the same reducer so observer sees the same
// kind of snapshots as with Submit.
func (s *Session) Ask(ctx context.Context, query string, observer turn.Observer) (turn.Snapshot, error) {
	return s.run(ctx, query, false, observer, func(req client.Request) turn.Source {
		reply, err := s.client.Send(ctx, req)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("chat request failed", "error", err)
			}
			return turn.FromEvents(sse.TransportError(err))
		}

		if reply.ConversationID != "" {
			s.mu.Lock()
			s.conversationID = reply.ConversationID
			s.mu.Unlock()
		}
		return turn.FromEvents(reply.Events()...)
	})
}

func (s *Session) run(
	ctx context.Context,
	query string,
	streaming bool,
	observer turn.Observer,
	open func(client.Request) turn.Source,
) (turn.Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return turn.Snapshot{}, ErrEmptyQuery
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return turn.Snapshot{}, ErrTurnInFlight
	}
	defer s.inFlight.Store(false)

	req := s.request(query)
	t := turn.New(query)
	log := s.logger.With("turn_id", t.ID())

	log.Debug("turn started", "streaming", streaming, "history_len", len(req.ConversationHistory))

	src := open(req)
	if r, ok := src.(*sse.Reader); ok {
		defer r.Close()
	}

	snap, err := turn.NewReducer(t, turn.WithLogger(s.logger)).Run(ctx, src, observer)
	if err != nil {
		log.Debug("turn cancelled", "status", snap.Status.String(), "error", err)
		return snap, err
	}

	s.mu.Lock()
	s.history.Append(
		history.Message{Role: history.RoleUser, Content: query},
		history.Message{Role: history.RoleAssistant, Content: snap.Content},
	)
	conversationID := s.conversationID
	s.mu.Unlock()

	log.Info("turn finished",
		"status", snap.Status.String(),
		"products", len(snap.Products),
		"duration", snap.Duration(),
	)

	event := eventstream.NewTurnCompletedEvent(s.id, conversationID, streaming, snap)
	if err := s.publisher.PublishTurn(ctx, event); err != nil {
		log.Warn("could not publish turn event", "error", err)
	}

	return snap, nil
}

// request captures the context window as it was before this turn.
func (s *Session) request(query string) client.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return client.Request{
		Message:             query,
		ConversationID:      s.conversationID,
		ConversationHistory: s.history.Window(),
	}
}
