package api

import (
	"context"

	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/messenger"
)

// turnJob returns the worker job for one inbound message: typing on, apply
// the turn, send the replies in order, typing off.
func (s *Server) turnJob(event messenger.Event) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.processTurn(ctx, event)
	}
}

func (s *Server) processTurn(ctx context.Context, event messenger.Event) error {
	transport := s.config.Transport

	if err := transport.SetTypingIndicator(ctx, event.SenderID, true); err != nil {
		s.logger.Warn("failed to set typing indicator", "external_id", event.SenderID, "error", err)
	}
	defer func() {
		if err := transport.SetTypingIndicator(ctx, event.SenderID, false); err != nil {
			s.logger.Warn("failed to clear typing indicator", "external_id", event.SenderID, "error", err)
		}
	}()

	entities := event.Entities
	if entities == nil && s.config.Classifier != nil {
		classified, err := s.config.Classifier.Classify(ctx, event.Text)
		if err != nil {
			s.logger.Warn("failed to classify message", "external_id", event.SenderID, "error", err)
		} else {
			entities = classified
		}
	}

	res, err := s.config.Turns.HandleTurn(ctx, dialogue.Turn{
		ExternalID: event.SenderID,
		Text:       event.Text,
		Entities:   entities,
	})
	if err != nil {
		return err
	}

	for _, text := range res.Replies {
		if err := transport.SendMessage(ctx, event.SenderID, text, messenger.MessageTypeResponse); err != nil {
			return err
		}
		s.config.Metrics.ObserveReply(string(messenger.MessageTypeResponse))
	}
	return nil
}
