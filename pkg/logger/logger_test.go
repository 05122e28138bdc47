package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/partchat/pkg/logger"
)

func decodeJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h failingHandler) WithGroup(string) slog.Handler           { return h }

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records with attributes", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("stream opened", "backend", "http://localhost:8000")

			Expect(buf.String()).To(ContainSubstring("stream opened"))
			Expect(buf.String()).To(ContainSubstring("backend=http://localhost:8000"))
		})

		It("drops debug records unless debug is enabled", func() {
			var quiet, loud bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("frame decoded")
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("frame decoded")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("frame decoded"))
		})

		It("honors an explicit level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithLevel(slog.LevelWarn))
			l.Info("turn finished")
			Expect(buf.String()).To(BeEmpty())

			l.Warn("turn failed")
			Expect(buf.String()).To(ContainSubstring("turn failed"))
		})

		It("writes JSON records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Warn("discarding frame", "discarded", 3)

			parsed := decodeJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("discarding frame"))
			Expect(parsed["level"]).To(Equal("WARN"))
			Expect(parsed["discarded"]).To(BeNumerically("==", 3))
		})

		It("writes pretty records through charmbracelet/log", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("turn finished", "status", "done")

			Expect(buf.String()).To(ContainSubstring("turn finished"))
			Expect(buf.String()).To(ContainSubstring("done"))
		})

		It("adds source locations when asked", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
			l.Info("with source")

			Expect(decodeJSONLine(&buf)).To(HaveKey(slog.SourceKey))
		})

		It("fans out to several writers", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("twice")

			Expect(a.String()).To(ContainSubstring("twice"))
			Expect(b.String()).To(ContainSubstring("twice"))
		})

		It("nests grouped attributes", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.WithGroup("turn").Info("applied", "kind", "text")

			group, ok := decodeJSONLine(&buf)["turn"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["kind"]).To(Equal("text"))
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			h := logger.Nop().Handler()
			for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
				Expect(h.Enabled(context.Background(), level)).To(BeFalse())
			}
		})

		It("survives derived loggers", func() {
			Expect(func() {
				logger.Nop().With("k", "v").WithGroup("g").Error("ignored")
			}).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches to every logger", func() {
			var text, js bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&text)),
				logger.New(logger.WithWriter(&js), logger.WithJSON(true)),
			)
			multi.Info("broadcast", "session", "abc")

			Expect(text.String()).To(ContainSubstring("broadcast"))
			Expect(decodeJSONLine(&js)["session"]).To(Equal("abc"))
		})

		It("respects each handler's level", func() {
			var quiet, loud bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&quiet)),
				logger.New(logger.WithWriter(&loud), logger.WithDebug(true)),
			)
			multi.Debug("only loud")

			Expect(quiet.String()).To(BeEmpty())
			Expect(loud.String()).To(ContainSubstring("only loud"))
		})

		It("keeps attributes bound with With", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
			multi.With("component", "reducer").Info("hello")

			Expect(decodeJSONLine(&buf)["component"]).To(Equal("reducer"))
		})

		It("skips nil loggers", func() {
			var buf bytes.Buffer
			multi := logger.Multi(nil, logger.New(logger.WithWriter(&buf)))
			multi.Info("still works")

			Expect(buf.String()).To(ContainSubstring("still works"))
		})

		It("joins handler errors", func() {
			var buf bytes.Buffer
			multi := logger.Multi(
				slog.New(failingHandler{}),
				logger.New(logger.WithWriter(&buf)),
			)

			var r slog.Record
			r.Level = slog.LevelInfo
			r.Message = "partial failure"
			err := multi.Handler().Handle(context.Background(), r)

			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(buf.String()).To(ContainSubstring("partial failure"))
		})
	})
})
