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

	"github.com/papercomputeco/studybot/pkg/logger"
)

// decode parses a single JSON log line.
func decode(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

// failingWriter rejects every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

var _ = Describe("New", func() {
	It("writes slog text by default", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf)).Info("turn handled", "external_id", "42")

		Expect(buf.String()).To(ContainSubstring("turn handled"))
		Expect(buf.String()).To(ContainSubstring("external_id=42"))
	})

	It("filters debug records unless debug is on", func() {
		var quiet, loud bytes.Buffer
		logger.New(logger.WithWriter(&quiet)).Debug("hidden")
		logger.New(logger.WithWriter(&loud), logger.WithDebug(true)).Debug("shown")

		Expect(quiet.String()).To(BeEmpty())
		Expect(loud.String()).To(ContainSubstring("shown"))
	})

	It("does not undo a level with WithDebug(false)", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithLevel("error"), logger.WithDebug(false))
		l.Warn("dropped")

		Expect(buf.String()).To(BeEmpty())
	})

	It("writes JSON records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("recorded review", "interval_days", 6)

		parsed := decode(&buf)
		Expect(parsed["msg"]).To(Equal("recorded review"))
		Expect(parsed["interval_days"]).To(BeNumerically("==", 6))
	})

	It("writes pretty records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithPretty(true)).Info("starting API server")

		Expect(buf.String()).To(ContainSubstring("starting API server"))
	})

	It("fans out to every writer", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriters(&a, &b)).Info("both")

		Expect(a.String()).To(ContainSubstring("both"))
		Expect(b.String()).To(ContainSubstring("both"))
	})

	It("tags records with the service name", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithService("studybot"))
		l.With("component", "reminder").Info("prompted users")

		parsed := decode(&buf)
		Expect(parsed["service"]).To(Equal("studybot"))
		Expect(parsed["component"]).To(Equal("reminder"))
	})

	It("nests grouped attributes", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.WithGroup("webhook").Info("received", "events", 2)

		group, ok := decode(&buf)["webhook"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["events"]).To(BeNumerically("==", 2))
	})
})

var _ = Describe("ParseLevel", func() {
	DescribeTable("known names",
		func(name string, want slog.Level) {
			level, err := logger.ParseLevel(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(level).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("empty", "", slog.LevelInfo),
		Entry("info", "INFO", slog.LevelInfo),
		Entry("warning", "warning", slog.LevelWarn),
		Entry("error", " error ", slog.LevelError),
	)

	It("rejects unknown names", func() {
		_, err := logger.ParseLevel("verbose")
		Expect(err).To(MatchError(ContainSubstring("unknown log level")))
	})

	It("leaves the level alone when WithLevel gets an unknown name", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithLevel("verbose")).Info("kept")

		Expect(buf.String()).To(ContainSubstring("kept"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("accepts children", func() {
		Expect(func() {
			logger.Nop().With("k", "v").WithGroup("g").Error("msg")
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("sends every record to each logger", func() {
		var console, file bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.Info("broadcast", "key", "val")

		Expect(console.String()).To(ContainSubstring("broadcast"))
		Expect(decode(&file)["key"]).To(Equal("val"))
	})

	It("respects each logger's level", func() {
		var info, debug bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)
		l.Debug("details")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("details"))
	})

	It("keeps writing after one handler fails", func() {
		var buf bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(failingWriter{})),
			logger.New(logger.WithWriter(&buf)),
		)
		l.Info("still here")

		Expect(buf.String()).To(ContainSubstring("still here"))
	})

	It("carries attributes and groups to every handler", func() {
		var a, b bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&b), logger.WithJSON(true)),
		)
		l.With("component", "api").WithGroup("request").Info("processed", "method", "POST")

		for _, buf := range []*bytes.Buffer{&a, &b} {
			parsed := decode(buf)
			Expect(parsed["component"]).To(Equal("api"))
			Expect(parsed["request"]).To(HaveKeyWithValue("method", "POST"))
		}
	})

	It("skips nil loggers and is a no-op when empty", func() {
		var buf bytes.Buffer
		logger.Multi(nil, logger.New(logger.WithWriter(&buf))).Info("one")
		Expect(buf.String()).To(ContainSubstring("one"))

		Expect(logger.Multi().Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})
