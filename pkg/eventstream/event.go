package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/studybot/pkg/scheduler"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeFactReviewed is emitted after a study review is persisted.
	EventTypeFactReviewed = "studybot.fact.reviewed"
)

// FactReviewedEvent is a transport-neutral event payload for a persisted review.
type FactReviewedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Source        EventSource   `json:"source"`
	Review        ReviewPayload `json:"review"`
}

// EventSource identifies whose review it was.
type EventSource struct {
	ExternalID string `json:"external_id"`
	UserID     int64  `json:"user_id"`
}

// ReviewPayload captures the scheduling outcome of the review.
type ReviewPayload struct {
	FactID             int64      `json:"fact_id"`
	Performance        int        `json:"performance"`
	Passed             bool       `json:"passed"`
	ReviewedAt         time.Time  `json:"reviewed_at"`
	PreviousDue        *time.Time `json:"previous_due,omitempty"`
	NextDue            time.Time  `json:"next_due"`
	IntervalDays       int        `json:"interval_days"`
	EaseFactor         float64    `json:"ease_factor"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
}

// NewFactReviewedEvent builds the event for review r of externalID's fact.
func NewFactReviewedEvent(externalID string, r scheduler.Review, emittedAt time.Time) *FactReviewedEvent {
	return &FactReviewedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeFactReviewed,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     emittedAt,
		Source: EventSource{
			ExternalID: externalID,
			UserID:     r.OwnerID,
		},
		Review: ReviewPayload{
			FactID:             r.FactID,
			Performance:        int(r.Performance),
			Passed:             r.Performance.Passed(),
			ReviewedAt:         r.ReviewedAt,
			PreviousDue:        r.PreviousDue,
			NextDue:            r.NextDue,
			IntervalDays:       r.IntervalDays,
			EaseFactor:         r.EaseFactor,
			ConsecutiveCorrect: r.ConsecutiveCorrect,
		},
	}
}

// Validate reports whether event can be published: it must be non-nil and
// carry an event id, an event type and the user's external id.
func (e *FactReviewedEvent) Validate() error {
	switch {
	case e == nil:
		return ErrNilReviewEvent
	case e.EventID == "", e.EventType == "", e.Source.ExternalID == "":
		return ErrIncompleteReviewEvent
	}
	return nil
}
