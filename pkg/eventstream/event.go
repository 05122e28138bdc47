package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/partchat/pkg/turn"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn reaches a terminal state.
	EventTypeTurnCompleted = "partchat.turn.completed"
)

// TurnCompletedEvent is a transport-neutral event payload for a finished turn.
type TurnCompletedEvent struct {
	SchemaVersion  int         `json:"schema_version"`
	EventType      string      `json:"event_type"`
	EventID        string      `json:"event_id"`
	EmittedAt      time.Time   `json:"emitted_at"`
	SessionID      string      `json:"session_id"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Streaming      bool        `json:"streaming"`
	DurationMs     int64       `json:"duration_ms"`
	Turn           TurnSummary `json:"turn"`
}

// TurnSummary describes the outcome of a turn without its full content.
type TurnSummary struct {
	TurnID        string                `json:"turn_id"`
	Status        string                `json:"status"`
	Errored       bool                  `json:"errored"`
	Error         string                `json:"error,omitempty"`
	ContentLength int                   `json:"content_length"`
	ProductCount  int                   `json:"product_count"`
	PartNumbers   []string              `json:"part_numbers"`
	Compatibility *CompatibilitySummary `json:"compatibility,omitempty"`
}

// CompatibilitySummary is the verdict attached to a turn, if any.
type CompatibilitySummary struct {
	Compatible  bool    `json:"compatible"`
	PartNumber  string  `json:"part_number"`
	ModelNumber string  `json:"model_number"`
	Confidence  float64 `json:"confidence"`
}

// NewTurnCompletedEvent builds the event for a terminal turn snapshot.
func NewTurnCompletedEvent(sessionID, conversationID string, streaming bool, snap turn.Snapshot) *TurnCompletedEvent {
	summary := TurnSummary{
		TurnID:        snap.ID,
		Status:        snap.Status.String(),
		Errored:       snap.Error,
		Error:         snap.Cause,
		ContentLength: len(snap.Content),
		ProductCount:  len(snap.Products),
		PartNumbers:   make([]string, 0, len(snap.Products)),
	}
	for _, p := range snap.Products {
		summary.PartNumbers = append(summary.PartNumbers, p.PartNumber)
	}
	if c := snap.Compatibility; c != nil {
		summary.Compatibility = &CompatibilitySummary{
			Compatible:  c.Compatible,
			PartNumber:  c.PartNumber,
			ModelNumber: c.ModelNumber,
			Confidence:  c.Confidence,
		}
	}

	return &TurnCompletedEvent{
		SchemaVersion:  SchemaVersionV1,
		EventType:      EventTypeTurnCompleted,
		EventID:        uuid.NewString(),
		EmittedAt:      time.Now().UTC(),
		SessionID:      sessionID,
		ConversationID: conversationID,
		Streaming:      streaming,
		DurationMs:     snap.Duration().Milliseconds(),
		Turn:           summary,
	}
}
