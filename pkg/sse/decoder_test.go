package sse_test

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/partchat/pkg/parts"
	"github.com/papercomputeco/partchat/pkg/sse"
)

func feedAll(d *sse.Decoder, chunks ...string) []sse.Event {
	var events []sse.Event
	for _, c := range chunks {
		events = append(events, d.Feed([]byte(c))...)
	}
	return events
}

func kinds(events []sse.Event) []sse.Kind {
	out := make([]sse.Kind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

var _ = Describe("Decoder", func() {
	var d *sse.Decoder

	BeforeEach(func() {
		d = sse.NewDecoder()
	})

	Describe("Feed", func() {
		Context("with the whole stream in one chunk", func() {
			It("yields every frame in wire order", func() {
				events := d.Feed([]byte(scenarioStream))

				Expect(kinds(events)).To(Equal([]sse.Kind{
					sse.KindThinking, sse.KindText, sse.KindText, sse.KindProduct, sse.KindDone,
				}))
				Expect(events[0].Text).To(Equal("Looking..."))
				Expect(events[1].Text).To(Equal("The "))
				Expect(events[2].Text).To(Equal("part fits."))
				Expect(events[3].Product).To(Equal(&parts.Product{
					PartNumber: "PS123",
					Name:       "Gasket",
					InStock:    true,
				}))
				Expect(d.Done()).To(BeTrue())
				Expect(d.Pending()).To(BeZero())
			})
		})

		Context("with arbitrary chunk boundaries", func() {
			It("yields the same events for every two-way split", func() {
				want := sse.NewDecoder().Feed([]byte(scenarioStream))

				for i := 0; i <= len(scenarioStream); i++ {
					got := feedAll(sse.NewDecoder(), scenarioStream[:i], scenarioStream[i:])
					Expect(got).To(Equal(want), "split at byte %d", i)
				}
			})

			It("yields the same events when fed one byte at a time", func() {
				want := sse.NewDecoder().Feed([]byte(scenarioStream))

				var got []sse.Event
				for i := range len(scenarioStream) {
					got = append(got, d.Feed([]byte{scenarioStream[i]})...)
				}
				Expect(got).To(Equal(want))
			})

			It("accepts empty chunks anywhere", func() {
				events := feedAll(d, "", "data: {\"type\":\"te", "", "", "xt\",\"content\":\"hi\"}\n", "")
				Expect(events).To(HaveLen(1))
				Expect(events[0].Text).To(Equal("hi"))
			})

			It("reassembles a split multi-byte character", func() {
				frame := "data: {\"type\":\"text\",\"content\":\"Türdichtung ✓\"}\n"
				idx := strings.Index(frame, "✓") + 1 // inside the three-byte sequence
				Expect(utf8.ValidString(frame[:idx])).To(BeFalse())

				events := feedAll(d, frame[:idx], frame[idx:])
				Expect(events).To(HaveLen(1))
				Expect(events[0].Text).To(Equal("Türdichtung ✓"))
			})

			It("keeps the unterminated line pending", func() {
				Expect(d.Feed([]byte("data: {\"type\":\"text\""))).To(BeEmpty())
				Expect(d.Pending()).To(Equal(len("data: {\"type\":\"text\"")))

				events := d.Feed([]byte(",\"content\":\"ok\"}\n"))
				Expect(events).To(HaveLen(1))
				Expect(d.Pending()).To(BeZero())
			})
		})

		Context("with insignificant lines", func() {
			It("never yields an event for lines without the data prefix", func() {
				events := d.Feed([]byte(
					": keep-alive\n" +
						"\n" +
						"event: text\n" +
						"id: 7\n" +
						"data:{\"type\":\"text\",\"content\":\"no space\"}\n" +
						"DATA: {\"type\":\"text\",\"content\":\"upper\"}\n" +
						" data: {\"type\":\"text\",\"content\":\"indented\"}\n",
				))
				Expect(events).To(BeEmpty())
				Expect(d.Discarded()).To(BeZero())
			})

			It("accepts CRLF line endings", func() {
				events := d.Feed([]byte("data: {\"type\":\"text\",\"content\":\"crlf\"}\r\n"))
				Expect(events).To(HaveLen(1))
				Expect(events[0].Text).To(Equal("crlf"))
			})
		})

		Context("with undecodable frames", func() {
			It("discards malformed JSON and keeps decoding", func() {
				events := d.Feed([]byte(
					"data: {\"type\":\"text\",\"content\":\"a\"}\n" +
						"data: {not json\n" +
						"data: [DONE]\n" +
						"data: {\"type\":\"text\",\"content\":\"b\"}\n",
				))
				Expect(events).To(HaveLen(2))
				Expect(events[0].Text).To(Equal("a"))
				Expect(events[1].Text).To(Equal("b"))
				Expect(d.Discarded()).To(Equal(2))
			})

			It("discards payloads whose shape does not match the kind", func() {
				events := d.Feed([]byte(
					"data: {\"type\":\"text\",\"content\":{\"oops\":true}}\n" +
						"data: {\"type\":\"product\",\"content\":\"PS123\"}\n" +
						"data: {\"type\":\"compatibility\"}\n",
				))
				Expect(events).To(BeEmpty())
				Expect(d.Discarded()).To(Equal(3))
			})

			It("drops a line that outgrows the maximum size", func() {
				d = sse.NewDecoder(sse.WithMaxLineSize(32))

				events := feedAll(d,
					"data: {\"type\":\"text\",\"content\":\""+strings.Repeat("x", 40),
					strings.Repeat("y", 40),
					"\"}\ndata: {\"type\":\"done\"}\n",
				)
				Expect(kinds(events)).To(Equal([]sse.Kind{sse.KindDone}))
				Expect(d.Discarded()).To(Equal(1))
			})

			It("drops an oversized line the same way wherever the chunks split", func() {
				long := "data: {\"type\":\"text\",\"content\":\"" + strings.Repeat("x", 110) + "\"}\n"
				stream := long + "data: {\"type\":\"done\"}\n"
				Expect(len(long)).To(BeNumerically(">", 100))

				whole := sse.NewDecoder(sse.WithMaxLineSize(100))
				want := whole.Feed([]byte(stream))
				Expect(kinds(want)).To(Equal([]sse.Kind{sse.KindDone}))
				Expect(whole.Discarded()).To(Equal(1))

				for i := 1; i < len(stream); i++ {
					split := sse.NewDecoder(sse.WithMaxLineSize(100))
					got := feedAll(split, stream[:i], stream[i:])
					Expect(kinds(got)).To(Equal(kinds(want)), "split at %d", i)
					Expect(split.Discarded()).To(Equal(1), "split at %d", i)
				}
			})

			It("keeps a line exactly at the maximum size", func() {
				line := "data: {\"type\":\"text\",\"content\":\"ok\"}"
				d = sse.NewDecoder(sse.WithMaxLineSize(len(line)))

				events := d.Feed([]byte(line + "\n"))
				Expect(kinds(events)).To(Equal([]sse.Kind{sse.KindText}))
				Expect(d.Discarded()).To(BeZero())
			})
		})

		Context("with a done frame", func() {
			It("stops consuming the rest of the chunk", func() {
				events := d.Feed([]byte(
					"data: {\"type\":\"text\",\"content\":\"a\"}\n" +
						"data: {\"type\":\"done\"}\n" +
						"data: {\"type\":\"text\",\"content\":\"late\"}\n",
				))
				Expect(kinds(events)).To(Equal([]sse.Kind{sse.KindText, sse.KindDone}))
			})

			It("ignores every later chunk", func() {
				d.Feed([]byte("data: {\"type\":\"done\"}\n"))
				Expect(d.Feed([]byte("data: {\"type\":\"text\",\"content\":\"late\"}\n"))).To(BeNil())
				Expect(d.Pending()).To(BeZero())
			})
		})

		It("passes unknown kinds through with their raw content", func() {
			events := d.Feed([]byte("data: {\"type\":\"citation\",\"content\":{\"url\":\"https://example.com\"}}\n"))
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(sse.Kind("citation")))
			Expect(events[0].Kind.Known()).To(BeFalse())
			Expect(string(events[0].Raw)).To(Equal(`{"url":"https://example.com"}`))
		})
	})

	Describe("Reset", func() {
		It("allows decoding a new stream after done", func() {
			d.Feed([]byte("data: {\"type\":\"done\"}\n"))
			d.Reset()

			Expect(d.Done()).To(BeFalse())
			events := d.Feed([]byte("data: {\"type\":\"text\",\"content\":\"again\"}\n"))
			Expect(events).To(HaveLen(1))
		})

		It("drops a half-received line", func() {
			d.Feed([]byte("data: {\"type\":"))
			d.Reset()

			Expect(d.Pending()).To(BeZero())
			Expect(d.Feed([]byte("\"text\"}\n"))).To(BeEmpty())
		})
	})
})
