package askcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	partchatcmder "github.com/papercomputeco/partchat/cmd/partchat"
	askcmder "github.com/papercomputeco/partchat/cmd/partchat/ask"
	"github.com/papercomputeco/partchat/pkg/client"
	"github.com/papercomputeco/partchat/pkg/turn"
)

var _ = Describe("ask command", func() {
	var (
		mux         *http.ServeMux
		srv         *httptest.Server
		configDir   string
		out, errOut bytes.Buffer
		received    []client.Request
	)

	BeforeEach(func() {
		mux = http.NewServeMux()
		srv = httptest.NewServer(mux)
		DeferCleanup(srv.Close)

		configDir = GinkgoT().TempDir()
		received = nil
		out.Reset()
		errOut.Reset()
	})

	record := func(r *http.Request) {
		var req client.Request
		Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
		received = append(received, req)
	}

	stream := func(frames ...string) {
		mux.HandleFunc("POST /api/v1/chat/stream", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			record(r)
			w.Header().Set("Content-Type", "text/event-stream")
			for _, f := range frames {
				fmt.Fprintf(w, "data: %s\n\n", f)
			}
		})
	}

	run := func(args ...string) error {
		cmd := partchatcmder.NewPartchatCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs(append([]string{"ask", "--config-dir", configDir, "--backend", srv.URL + "/api/v1"}, args...))
		return cmd.Execute()
	}

	It("requires a question", func() {
		Expect(run()).To(HaveOccurred())
	})

	It("streams the answer and joins the arguments", func() {
		stream(
			`{"type":"compatibility","content":{"compatible":true,"part_number":"PS11752778","model_number":"WDT780SAEM1","confidence":0.95,"explanation":"Listed for this model."}}`,
			`{"type":"text","content":"Yes, it fits."}`,
			`{"type":"done","content":null}`,
		)

		Expect(run("does", "PS11752778", "fit?")).To(Succeed())

		Expect(received).To(HaveLen(1))
		Expect(received[0].Message).To(Equal("does PS11752778 fit?"))
		Expect(out.String()).To(ContainSubstring("Compatible"))
		Expect(out.String()).To(ContainSubstring("Yes, it fits."))
	})

	It("exits non-zero when the answer failed", func() {
		stream(`{"type":"error","content":{"error":"model overloaded"}}`)

		err := run("help")
		Expect(err).To(MatchError(askcmder.ErrTurnFailed))
		Expect(err).To(MatchError(ContainSubstring("model overloaded")))
		Expect(out.String()).To(ContainSubstring(turn.ApologyText))
	})

	It("exits non-zero when the stream is cut short", func() {
		stream(`{"type":"text","content":"Part"}`)

		Expect(run("help")).To(MatchError(askcmder.ErrTurnFailed))
	})

	Describe("--no-stream", func() {
		It("fetches the complete reply", func() {
			mux.HandleFunc("POST /api/v1/chat/message", func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				record(r)
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"message":"Replace the water inlet valve.","conversation_id":"conv-1","products":[{"part_number":"PS12070506","name":"Water Inlet Valve","price":89.99,"in_stock":true}]}`)
			})

			Expect(run("--no-stream", "ice maker not working")).To(Succeed())

			Expect(received).To(HaveLen(1))
			Expect(out.String()).To(ContainSubstring("PS12070506"))
			Expect(out.String()).To(ContainSubstring("Replace the water inlet valve."))
		})

		It("reports a backend failure as a failed answer", func() {
			mux.HandleFunc("POST /api/v1/chat/message", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
			})

			Expect(run("--no-stream", "help")).To(MatchError(askcmder.ErrTurnFailed))
			Expect(out.String()).To(ContainSubstring(turn.ApologyText))
		})
	})
})
