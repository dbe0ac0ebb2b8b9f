package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/worker"
)

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleVerify answers the webhook subscription handshake by echoing
// hub.challenge when hub.verify_token matches.
func (s *Server) handleVerify(c *fiber.Ctx) error {
	token := c.Query("hub.verify_token")
	if s.config.VerifyToken == "" || token != s.config.VerifyToken {
		s.logger.Warn("webhook verification failed")
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "wrong verification token"})
	}

	s.logger.Info("webhook verified")
	return c.SendString(c.Query("hub.challenge"))
}

// handleWebhook queues every message of the payload as a turn. It always
// answers 200: the platform unsubscribes webhooks that keep failing.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	var payload messenger.WebhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		s.logger.Warn("ignoring undecodable webhook payload", "error", err)
		return c.SendString("ok")
	}
	if payload.Object != "page" {
		s.logger.Warn("ignoring webhook for non-page object", "object", payload.Object)
		return c.SendString("ok")
	}

	for _, event := range payload.Events() {
		ok := s.config.Pool.Enqueue(worker.Job{
			Key:  event.SenderID,
			Name: "turn",
			Run:  s.turnJob(event),
		})
		if !ok {
			s.config.Metrics.ObserveDroppedJob()
			s.logger.Error("dropped turn, worker queue full",
				"external_id", event.SenderID,
			)
		}
	}

	return c.SendString("ok")
}
