// Package mcp provides an MCP (Model Context Protocol) server exposing a
// user's facts as read-only tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/utils"
)

type Config struct {
	// Facts is the fact repository the tools read from
	Facts storage.Driver

	// Now defaults to time.Now
	Now func() time.Time

	// Logger defaults to a no-op logger
	Logger *slog.Logger
}

// Server serves the fact tools over streamable HTTP.
type Server struct {
	config  Config
	tools   *mcp.Server
	handler http.Handler
}

// NewServer registers the fact tools against the repository in c.
func NewServer(c Config) (*Server, error) {
	if c.Facts == nil {
		return nil, errors.New("fact repository is required")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	s := &Server{config: c}
	s.tools = mcp.NewServer(
		&mcp.Implementation{
			Name:    "studybot",
			Version: utils.Version,
		},
		&mcp.ServerOptions{
			Instructions: "Read-only access to StudyBot flashcards. Every tool takes the user's messaging platform id as external_id.",
		},
	)

	mcp.AddTool(s.tools, &mcp.Tool{
		Name:        listFactsToolName,
		Description: listFactsDescription,
	}, s.handleListFacts)

	mcp.AddTool(s.tools, &mcp.Tool{
		Name:        nextDueToolName,
		Description: nextDueDescription,
	}, s.handleNextDue)

	mcp.AddTool(s.tools, &mcp.Tool{
		Name:        summaryToolName,
		Description: summaryDescription,
	}, s.handleSummary)

	// Every request is served by the same tool set, so no session state is kept.
	s.handler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.tools },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
