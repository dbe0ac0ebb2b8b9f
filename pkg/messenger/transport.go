// Package messenger talks to the Messenger Platform: it sends replies and
// typing indicators through the Send API, looks up profile names, and
// decodes inbound webhook payloads.
package messenger

import "context"

// MessageType tells the platform why a message is being sent.
type MessageType string

const (
	// MessageTypeResponse is a reply to a message the user just sent.
	MessageTypeResponse MessageType = "RESPONSE"

	// MessageTypeNonPromotional is a proactive, non-promotional message such
	// as a study reminder.
	MessageTypeNonPromotional MessageType = "NON_PROMOTIONAL_SUBSCRIPTION"
)

// Transport delivers messages to users.
type Transport interface {
	// SendMessage sends text, split into as many ordered messages as the
	// platform's length limit requires. Empty text sends nothing.
	SendMessage(ctx context.Context, recipientID, text string, messageType MessageType) error

	// SetTypingIndicator toggles the typing bubble shown to the user.
	SetTypingIndicator(ctx context.Context, recipientID string, on bool) error

	// FirstName returns the user's first name.
	FirstName(ctx context.Context, userID string) (string, error)
}
