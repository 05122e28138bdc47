package turn

import (
	"context"

	"github.com/papercomputeco/partchat/pkg/sse"
)

// sliceSource replays a fixed list of events.
type sliceSource struct {
	events []sse.Event
}

// FromEvents returns a Source that yields events in order and then ends.
func FromEvents(events ...sse.Event) Source {
	return &sliceSource{events: events}
}

func (s *sliceSource) Next(ctx context.Context) (*sse.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.events) == 0 {
		return nil, nil
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return &ev, nil
}
