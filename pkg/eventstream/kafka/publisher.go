// Package kafka publishes turn events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/partchat/pkg/eventstream"
	"github.com/papercomputeco/partchat/pkg/logger"
)

const defaultWriteTimeout = 10 * time.Second

var (
	// ErrNoBrokers is returned when no broker address is configured.
	ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

	// ErrNoTopic is returned when no topic is configured.
	ErrNoTopic = errors.New("kafka publisher requires a topic")
)

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration

	// Writer overrides the kafka-go writer built from Brokers and Topic.
	Writer MessageWriter

	Logger *slog.Logger
}

// Publisher writes each turn event as one JSON message keyed by session id,
// so all turns of a session land in the same partition in order.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher validates c and returns a Publisher.
func NewPublisher(c Config) (*Publisher, error) {
	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	w := c.Writer
	if w == nil {
		if len(c.Brokers) == 0 {
			return nil, ErrNoBrokers
		}
		if c.Topic == "" {
			return nil, ErrNoTopic
		}

		timeout := c.WriteTimeout
		if timeout <= 0 {
			timeout = defaultWriteTimeout
		}

		w = &kafkago.Writer{
			Addr:                   kafkago.TCP(c.Brokers...),
			Topic:                  c.Topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			WriteTimeout:           timeout,
			AllowAutoTopicCreation: true,
		}
	}

	return &Publisher{
		writer: w,
		topic:  c.Topic,
		logger: l.With("component", "kafka", "topic", c.Topic),
	}, nil
}

// PublishTurn writes event synchronously.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: fmt.Appendf(nil, "%d", event.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing turn event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published turn event",
		"event_id", event.EventID,
		"turn_id", event.Turn.TurnID,
	)
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
