// Package logger provides opinionated logging capabilities for the studybot system
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// config collects the options applied by New.
type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
	attrs   []slog.Attr
}

// New builds a *slog.Logger. With no options it writes slog's text format
// at Info level to os.Stdout.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var h slog.Handler
	switch {
	case c.pretty:
		h = newPrettyHandler(w, c)
	case c.json:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}
	if len(c.attrs) > 0 {
		h = h.WithAttrs(c.attrs)
	}
	return slog.New(h)
}

// newPrettyHandler returns a charmbracelet/log logger, which implements
// slog.Handler, for colorized CLI output.
func newPrettyHandler(w io.Writer, c *config) slog.Handler {
	level := charmlog.InfoLevel
	switch {
	case c.level <= slog.LevelDebug:
		level = charmlog.DebugLevel
	case c.level >= slog.LevelError:
		level = charmlog.ErrorLevel
	case c.level >= slog.LevelWarn:
		level = charmlog.WarnLevel
	}

	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		ReportCaller:    c.source,
		Level:           level,
	})
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
