package eventstream_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/partchat/pkg/eventstream"
	"github.com/papercomputeco/partchat/pkg/sse"
	"github.com/papercomputeco/partchat/pkg/turn"
)

func reduce(events ...sse.Event) turn.Snapshot {
	t := turn.New("does PS123 fit M1?")
	r := turn.NewReducer(t)
	for _, ev := range events {
		Expect(r.Apply(ev)).To(Succeed())
	}
	return t.Snapshot()
}

var _ = Describe("TurnCompletedEvent", func() {
	It("summarizes a completed turn", func() {
		snap := reduce(
			sse.Event{Kind: sse.KindText, Text: "It fits."},
			sse.Event{Kind: sse.KindDone},
		)

		ev := eventstream.NewTurnCompletedEvent("session-1", "conv-1", true, snap)
		Expect(ev.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(ev.EventType).To(Equal(eventstream.EventTypeTurnCompleted))
		Expect(ev.EventID).NotTo(BeEmpty())
		Expect(ev.SessionID).To(Equal("session-1"))
		Expect(ev.ConversationID).To(Equal("conv-1"))
		Expect(ev.Streaming).To(BeTrue())
		Expect(ev.DurationMs).To(BeNumerically(">=", 0))

		Expect(ev.Turn.TurnID).To(Equal(snap.ID))
		Expect(ev.Turn.Status).To(Equal("done"))
		Expect(ev.Turn.Errored).To(BeFalse())
		Expect(ev.Turn.ContentLength).To(Equal(len("It fits.")))
		Expect(ev.Turn.PartNumbers).To(BeEmpty())
		Expect(ev.Turn.Compatibility).To(BeNil())
	})

	It("records failures with their cause", func() {
		snap := reduce(
			sse.Event{Kind: sse.KindText, Text: "partial"},
			sse.Event{Kind: sse.KindError, Error: &sse.ErrorPayload{Error: "upstream timeout"}},
		)

		ev := eventstream.NewTurnCompletedEvent("session-1", "", false, snap)
		Expect(ev.Turn.Status).To(Equal("errored"))
		Expect(ev.Turn.Errored).To(BeTrue())
		Expect(ev.Turn.Error).To(Equal("upstream timeout"))
		Expect(ev.Turn.ContentLength).To(Equal(len(turn.ApologyText)))
	})

	It("marshals with expected top-level keys", func() {
		ev := eventstream.NewTurnCompletedEvent("session-1", "", true, reduce(sse.Event{Kind: sse.KindDone}))

		payload, err := json.Marshal(ev)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("session_id"))
		Expect(got).To(HaveKey("streaming"))
		Expect(got).To(HaveKey("turn"))
		Expect(got).NotTo(HaveKey("conversation_id"))
		Expect(strings.Contains(string(payload), `"part_numbers":[]`)).To(BeTrue())
	})

	It("defines stable event constants", func() {
		Expect(eventstream.EventTypeTurnCompleted).To(Equal("partchat.turn.completed"))
		Expect(eventstream.ErrNilTurnEvent).To(MatchError("nil turn event"))
	})
})
