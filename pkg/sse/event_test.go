package sse_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/partchat/pkg/parts"
	"github.com/papercomputeco/partchat/pkg/sse"
)

func decode(raw string) (sse.Event, error) {
	var ev sse.Event
	err := json.Unmarshal([]byte(raw), &ev)
	return ev, err
}

var _ = Describe("Event", func() {
	Describe("UnmarshalJSON", func() {
		It("decodes a compatibility verdict", func() {
			ev, err := decode(`{"type":"compatibility","content":{"compatible":true,"part_number":"PS11752778","model_number":"WDT780SAEM1","confidence":0.95,"explanation":"Listed for this model."}}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Compatibility).To(Equal(&parts.Compatibility{
				Compatible:  true,
				PartNumber:  "PS11752778",
				ModelNumber: "WDT780SAEM1",
				Confidence:  0.95,
				Explanation: "Listed for this model.",
			}))
		})

		It("decodes a full product record", func() {
			ev, err := decode(`{"type":"product","content":{"part_number":"PS3406971","name":"Door Shelf Bin","description":"Clear bin","price":44.95,"image_url":"https://example.com/bin.jpg","category":"shelves","appliance_type":"refrigerator","in_stock":false}}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Product.Price).To(Equal(44.95))
			Expect(ev.Product.ApplianceType).To(Equal("refrigerator"))
			Expect(ev.Product.InStock).To(BeFalse())
		})

		It("decodes an error payload object", func() {
			ev, err := decode(`{"type":"error","content":{"error":"upstream timeout"}}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Error).To(Equal(&sse.ErrorPayload{Error: "upstream timeout"}))
		})

		It("accepts an error payload given as a bare string", func() {
			ev, err := decode(`{"type":"error","content":"upstream timeout"}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Error.Error).To(Equal("upstream timeout"))
		})

		It("accepts an error without content", func() {
			ev, err := decode(`{"type":"error"}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Error).NotTo(BeNil())
		})

		It("treats null text content as empty", func() {
			ev, err := decode(`{"type":"text","content":null}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Text).To(BeEmpty())
		})

		It("ignores the content of done events", func() {
			ev, err := decode(`{"type":"done","content":null,"timestamp":"2025-06-01T12:00:00.123456Z"}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(sse.KindDone))
			Expect(ev.Timestamp).To(BeTemporally("==", time.Date(2025, 6, 1, 12, 0, 0, 123456000, time.UTC)))
		})

		It("parses timestamps without a zone and ignores garbage", func() {
			ev, err := decode(`{"type":"done","timestamp":"2025-06-01T12:00:00"}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Timestamp.IsZero()).To(BeFalse())

			ev, err = decode(`{"type":"done","timestamp":12}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Timestamp.IsZero()).To(BeTrue())
		})
	})

	Describe("TransportError", func() {
		It("builds a synthetic error event", func() {
			cause := json.Unmarshal([]byte("{"), &struct{}{})
			ev := sse.TransportError(cause)
			Expect(ev.Kind).To(Equal(sse.KindError))
			Expect(ev.Error.Error).To(Equal("Failed to stream response"))
			Expect(ev.Cause).To(Equal(cause))
		})
	})
})
