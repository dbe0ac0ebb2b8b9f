package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/scheduler"
	"github.com/papercomputeco/studybot/pkg/storage"
)

var (
	listFactsToolName    = "list_facts"
	listFactsDescription = "List every flashcard fact saved by a StudyBot user, ordered by id, with its question, answer and review schedule."

	nextDueToolName    = "next_due_fact"
	nextDueDescription = "Return the fact a StudyBot user should study next: the earliest one due now. Returns no fact when the user is caught up."

	summaryToolName    = "study_summary"
	summaryDescription = "Summarize a StudyBot user's progress: how many facts are saved, how many are due now, the average ease factor and whether study prompts are silenced."
)

// UserInput identifies a user by messaging-platform id.
type UserInput struct {
	ExternalID string `json:"external_id" jsonschema:"the user's messaging platform id (page-scoped id)"`
}

// FactView is a fact as returned by the tools.
type FactView struct {
	ID                 int64      `json:"id"`
	Question           string     `json:"question"`
	Answer             string     `json:"answer"`
	EaseFactor         float64    `json:"ease_factor"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	LastReviewed       time.Time  `json:"last_reviewed"`
	NextDue            *time.Time `json:"next_due,omitempty"`
}

// ListFactsOutput is the output of the list_facts tool.
type ListFactsOutput struct {
	ExternalID string     `json:"external_id"`
	Facts      []FactView `json:"facts"`
	Count      int        `json:"count"`
}

// NextDueOutput is the output of the next_due_fact tool.
type NextDueOutput struct {
	ExternalID string    `json:"external_id"`
	Fact       *FactView `json:"fact,omitempty"`
	CaughtUp   bool      `json:"caught_up"`
}

// SummaryOutput is the output of the study_summary tool.
type SummaryOutput struct {
	ExternalID   string     `json:"external_id"`
	Total        int        `json:"total"`
	Due          int        `json:"due"`
	AverageEase  float64    `json:"average_ease"`
	Silenced     bool       `json:"silenced"`
	SilenceUntil *time.Time `json:"silence_until,omitempty"`
}

func (s *Server) handleListFacts(ctx context.Context, _ *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, ListFactsOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP list facts request", "external_id", input.ExternalID)

	_, facts, errResult := s.userFacts(ctx, input.ExternalID)
	if errResult != nil {
		return errResult, ListFactsOutput{}, nil
	}

	output := ListFactsOutput{
		ExternalID: input.ExternalID,
		Facts:      make([]FactView, 0, len(facts)),
	}
	for _, f := range facts {
		output.Facts = append(output.Facts, toView(f))
	}
	output.Count = len(output.Facts)

	return textResult(output), output, nil
}

func (s *Server) handleNextDue(ctx context.Context, _ *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, NextDueOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP next due request", "external_id", input.ExternalID)

	_, facts, errResult := s.userFacts(ctx, input.ExternalID)
	if errResult != nil {
		return errResult, NextDueOutput{}, nil
	}

	output := NextDueOutput{ExternalID: input.ExternalID, CaughtUp: true}
	if next := scheduler.SelectNextDue(facts, s.config.Now()); next != nil {
		view := toView(next)
		output.Fact = &view
		output.CaughtUp = false
	}

	return textResult(output), output, nil
}

func (s *Server) handleSummary(ctx context.Context, _ *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, SummaryOutput, error) {
	s.config.Logger.Debug("MCP study summary request", "external_id", input.ExternalID)

	user, facts, errResult := s.userFacts(ctx, input.ExternalID)
	if errResult != nil {
		return errResult, SummaryOutput{}, nil
	}

	now := s.config.Now()
	output := SummaryOutput{
		ExternalID: input.ExternalID,
		Total:      len(facts),
		Silenced:   user.Silenced(now),
	}
	if output.Silenced {
		output.SilenceUntil = user.SilenceUntil
	}

	var easeSum float64
	for _, f := range facts {
		easeSum += f.EaseFactor
		if f.NextDue == nil || !f.NextDue.After(now) {
			output.Due++
		}
	}
	if output.Total > 0 {
		output.AverageEase = easeSum / float64(output.Total)
	}

	return textResult(output), output, nil
}

// userFacts loads the user and their facts, or the tool error result to return.
func (s *Server) userFacts(ctx context.Context, externalID string) (*flashcard.User, []*flashcard.Fact, *mcp.CallToolResult) {
	if externalID == "" {
		return nil, nil, errorResult("external_id is required")
	}

	user, err := s.config.Facts.GetUser(ctx, externalID)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil, errorResult(fmt.Sprintf("No user with id %s", externalID))
		}
		s.config.Logger.Error("failed to load user", "external_id", externalID, "error", err)
		return nil, nil, errorResult(fmt.Sprintf("Failed to load user: %v", err))
	}

	facts, err := s.config.Facts.ListFacts(ctx, user.ID)
	if err != nil {
		s.config.Logger.Error("failed to list facts", "external_id", externalID, "error", err)
		return nil, nil, errorResult(fmt.Sprintf("Failed to list facts: %v", err))
	}
	return user, facts, nil
}

func toView(f *flashcard.Fact) FactView {
	return FactView{
		ID:                 f.ID,
		Question:           f.Question,
		Answer:             f.Answer,
		EaseFactor:         f.EaseFactor,
		ConsecutiveCorrect: f.ConsecutiveCorrect,
		LastReviewed:       f.LastReviewed,
		NextDue:            f.NextDue,
	}
}

// textResult mirrors structured output as JSON text for clients that only
// read text content.
func textResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
