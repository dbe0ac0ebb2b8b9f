package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

// Multi combines loggers into one. serve uses it to keep console output for
// the operator while writing JSON to a log file. Nil loggers are skipped and
// Multi of nothing is Nop.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	var handlers fanout
	for _, l := range loggers {
		if l != nil {
			handlers = append(handlers, l.Handler())
		}
	}

	switch len(handlers) {
	case 0:
		return Nop()
	case 1:
		return slog.New(handlers[0])
	default:
		return slog.New(handlers)
	}
}

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every handler even when one fails, and returns the
// joined errors.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
