package messenger

import "github.com/papercomputeco/studybot/pkg/nlp"

// NotText is the text recorded for inbound messages without text, such as
// stickers or attachments.
const NotText = "Not text"

// WebhookPayload is the body of a webhook POST.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry batches the events of one page.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is one event delivered to the page.
type MessagingEvent struct {
	Sender    Participant     `json:"sender"`
	Recipient Participant     `json:"recipient"`
	Timestamp int64           `json:"timestamp"`
	Message   *InboundMessage `json:"message,omitempty"`
	Postback  *Postback       `json:"postback,omitempty"`
}

// Postback is a button tap. Postbacks are not conversational turns.
type Postback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Participant identifies a sender or recipient by page-scoped id.
type Participant struct {
	ID string `json:"id"`
}

// InboundMessage is a message sent to the page.
type InboundMessage struct {
	MID  string    `json:"mid"`
	Seq  int64     `json:"seq,omitempty"`
	Text string    `json:"text,omitempty"`
	NLP  *NLPBlock `json:"nlp,omitempty"`
}

// NLPBlock carries the platform's built-in NLP results.
type NLPBlock struct {
	Entities nlp.Entities `json:"entities"`
}

// Event is an inbound turn extracted from a webhook payload.
type Event struct {
	SenderID string
	Text     string

	// Entities is nil when the platform attached no NLP results.
	Entities nlp.Entities
}

// Events extracts the message events of a page payload in delivery order.
// Payloads for other objects yield nothing.
func (p *WebhookPayload) Events() []Event {
	if p == nil || p.Object != "page" {
		return nil
	}

	var events []Event
	for _, entry := range p.Entry {
		for _, m := range entry.Messaging {
			if m.Message == nil || m.Sender.ID == "" {
				continue
			}

			event := Event{
				SenderID: m.Sender.ID,
				Text:     m.Message.Text,
			}
			if event.Text == "" {
				event.Text = NotText
			}
			if m.Message.NLP != nil && m.Message.NLP.Entities != nil {
				event.Entities = m.Message.NLP.Entities
			}
			events = append(events, event)
		}
	}
	return events
}
