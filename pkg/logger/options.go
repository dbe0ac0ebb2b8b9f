package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Option configures a logger created with New.
type Option func(*config)

// WithDebug lowers the level to Debug when true. False leaves the level as
// configured (Info by default).
func WithDebug(debug bool) Option {
	return func(c *config) {
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithLevel sets the minimum level by name: debug, info, warn or error.
// Unknown names keep the current level and are reported by ParseLevel.
func WithLevel(name string) Option {
	return func(c *config) {
		if level, err := ParseLevel(name); err == nil {
			c.level = level
		}
	}
}

// ParseLevel maps a level name to its slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// WithPretty selects the colorized charmbracelet/log handler.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON selects slog's JSON handler. Pretty wins when both are set.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter sends output to w only. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return WithWriters(w)
}

// WithWriters sends output to every w.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithSource adds the caller's file:line to each record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithService tags every record with service=name so the bot's records can
// be told apart in a shared log pipeline.
func WithService(name string) Option {
	return func(c *config) {
		if name != "" {
			c.attrs = append(c.attrs, slog.String("service", name))
		}
	}
}
