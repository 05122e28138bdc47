// Package sse decodes the parts assistant's event stream.
//
// The backend answers a chat request with a text/event-stream body made of
// newline-delimited frames of the form:
//
//	data: {"type":"text","content":"The part fits."}
//
// Only lines carrying the literal "data: " prefix are significant; every other
// line (blank keep-alives, ":" comments, "event:" fields) is discarded.
//
// Lines are split on raw bytes before any text decoding happens. A '\n' byte
// never occurs inside a multi-byte UTF-8 sequence, so a character split across
// two network reads is reassembled in the pending buffer before its line is
// decoded.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papercomputeco/partchat/pkg/parts"
)

// Kind discriminates an Event and determines which payload field is set.
type Kind string

const (
	KindThinking      Kind = "thinking"
	KindText          Kind = "text"
	KindProduct       Kind = "product"
	KindCompatibility Kind = "compatibility"
	KindDone          Kind = "done"
	KindError         Kind = "error"
)

// Known reports whether k is one of the event kinds this client understands.
func (k Kind) Known() bool {
	switch k {
	case KindThinking, KindText, KindProduct, KindCompatibility, KindDone, KindError:
		return true
	default:
		return false
	}
}

// ErrorPayload is the content of an error event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Event is a single decoded frame. The Kind field determines which of the
// other fields are populated.
type Event struct {
	Kind Kind

	// Text is the payload of thinking and text events.
	Text string

	// Product is the payload of product events.
	Product *parts.Product

	// Compatibility is the payload of compatibility events.
	Compatibility *parts.Compatibility

	// Error is the payload of error events.
	Error *ErrorPayload

	// Raw holds the undecoded content of events with an unknown kind.
	Raw json.RawMessage

	// Timestamp is the server emission time, zero when absent or unparseable.
	Timestamp time.Time

	// Cause is the transport failure behind a synthetic error event.
	// It is never set on events decoded from the wire.
	Cause error
}

type wireEvent struct {
	Type      Kind            `json:"type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

var jsonNull = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// UnmarshalJSON decodes a wire frame, shaping the content by its type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	ev := Event{
		Kind:      w.Type,
		Timestamp: parseTimestamp(w.Timestamp),
	}

	switch w.Type {
	case KindThinking, KindText:
		if !isNull(w.Content) {
			if err := json.Unmarshal(w.Content, &ev.Text); err != nil {
				return fmt.Errorf("%s content: %w", w.Type, err)
			}
		}

	case KindProduct:
		if isNull(w.Content) {
			return fmt.Errorf("product event without content")
		}
		ev.Product = &parts.Product{}
		if err := json.Unmarshal(w.Content, ev.Product); err != nil {
			return fmt.Errorf("product content: %w", err)
		}

	case KindCompatibility:
		if isNull(w.Content) {
			return fmt.Errorf("compatibility event without content")
		}
		ev.Compatibility = &parts.Compatibility{}
		if err := json.Unmarshal(w.Content, ev.Compatibility); err != nil {
			return fmt.Errorf("compatibility content: %w", err)
		}

	case KindError:
		ev.Error = &ErrorPayload{}
		if isNull(w.Content) {
			break
		}
		if err := json.Unmarshal(w.Content, ev.Error); err != nil {
			// Some backends send the message as a bare string.
			var msg string
			if strErr := json.Unmarshal(w.Content, &msg); strErr != nil {
				return fmt.Errorf("error content: %w", err)
			}
			ev.Error.Error = msg
		}

	case KindDone:

	default:
		ev.Raw = append(json.RawMessage(nil), w.Content...)
	}

	*e = ev
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if isNull(raw) {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// failureMessage is the error text carried by synthetic transport failures.
const failureMessage = "Failed to stream response"

// TransportError returns the synthetic error event that stands in for a
// failed or truncated connection.
func TransportError(cause error) Event {
	return Event{
		Kind:      KindError,
		Error:     &ErrorPayload{Error: failureMessage},
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}
