package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/studybot/pkg/logger"
)

// Server is the API server for the StudyBot webhook
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config) (*Server, error) {
	if config.Turns == nil {
		return nil, errors.New("turn handler is required")
	}
	if config.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if config.Pool == nil {
		return nil, errors.New("worker pool is required")
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: config.Logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/webhook", s.handleVerify)
	app.Post("/webhook", s.handleWebhook)

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}
	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
