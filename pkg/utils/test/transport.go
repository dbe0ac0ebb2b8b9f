package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/studybot/pkg/messenger"
)

// SentMessage is one message recorded by MockTransport.
type SentMessage struct {
	RecipientID string
	Text        string
	Type        messenger.MessageType
}

// MockTransport is a test messenger.Transport that records every call.
type MockTransport struct {
	mu sync.Mutex

	// Sent accumulates all messages passed to SendMessage.
	Sent []SentMessage

	// Typing records every SetTypingIndicator value per recipient.
	Typing map[string][]bool

	// Names is returned by FirstName. Unknown ids get DefaultName.
	Names       map[string]string
	DefaultName string

	// FailSend causes SendMessage to return an error.
	FailSend bool

	// FailName causes FirstName to return an error.
	FailName bool
}

// NewMockTransport creates a MockTransport that names everyone "Ada".
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Typing:      make(map[string][]bool),
		Names:       make(map[string]string),
		DefaultName: "Ada",
	}
}

func (t *MockTransport) SendMessage(_ context.Context, recipientID, text string, messageType messenger.MessageType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailSend {
		return errors.New("mock send failure")
	}
	if text == "" {
		return nil
	}
	t.Sent = append(t.Sent, SentMessage{RecipientID: recipientID, Text: text, Type: messageType})
	return nil
}

func (t *MockTransport) SetTypingIndicator(_ context.Context, recipientID string, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Typing[recipientID] = append(t.Typing[recipientID], on)
	return nil
}

func (t *MockTransport) FirstName(_ context.Context, userID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailName {
		return "", errors.New("mock profile failure")
	}
	if name, ok := t.Names[userID]; ok {
		return name, nil
	}
	return t.DefaultName, nil
}

// Messages returns a snapshot of the sent messages.
func (t *MockTransport) Messages() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]SentMessage, len(t.Sent))
	copy(out, t.Sent)
	return out
}

// Texts returns the text of every message sent to recipientID, in order.
func (t *MockTransport) Texts(recipientID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, m := range t.Sent {
		if m.RecipientID == recipientID {
			out = append(out, m.Text)
		}
	}
	return out
}

// TypingFor returns the typing indicator history of recipientID.
func (t *MockTransport) TypingFor(recipientID string) []bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]bool(nil), t.Typing[recipientID]...)
}
