// Package api provides the HTTP server that receives Messenger webhooks and
// serves health, metrics and MCP endpoints.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/metrics"
	"github.com/papercomputeco/studybot/pkg/nlp"
	"github.com/papercomputeco/studybot/pkg/worker"
)

// TurnHandler applies a user message. *dialogue.Manager satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn dialogue.Turn) (dialogue.Result, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// VerifyToken is compared with hub.verify_token on the webhook
	// subscription handshake.
	VerifyToken string

	// Turns handles each inbound message.
	Turns TurnHandler

	// Transport delivers replies and typing indicators.
	Transport messenger.Transport

	// Classifier tags messages that arrive without platform NLP (optional).
	Classifier nlp.Classifier

	// Pool runs turns off the request path, one user at a time.
	Pool *worker.Pool

	// Metrics enables GET /metrics (optional).
	Metrics *metrics.Collector

	// MCP is mounted at /mcp when set.
	MCP http.Handler

	// Logger is the provided slog logger
	Logger *slog.Logger
}
