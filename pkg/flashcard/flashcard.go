// Package flashcard holds the persisted domain records of studybot: the users
// talking to the bot and the question/answer facts they study.
package flashcard

import (
	"strings"
	"time"
)

const (
	// DefaultEaseFactor is the SM-2 starting ease for a new fact.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the SM-2 floor for the ease factor.
	MinEaseFactor = 1.3

	// FirstReviewDelay is how long after creation a new fact becomes due.
	FirstReviewDelay = 24 * time.Hour
)

// User is a person talking to the bot through the messaging platform.
type User struct {
	ID int64 `json:"id"`

	// ExternalID is the messaging-platform identity (a page-scoped id for
	// Messenger). It is unique across users.
	ExternalID string `json:"external_id"`

	// Welcomed is set once the first-contact greeting has been delivered.
	Welcomed bool `json:"welcomed"`

	// SilenceUntil suppresses proactive study prompts while now is before it.
	SilenceUntil *time.Time `json:"silence_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Silenced reports whether proactive prompts are suppressed at now.
func (u *User) Silenced(now time.Time) bool {
	return u.SilenceUntil != nil && now.Before(*u.SilenceUntil)
}

// Fact is a question/answer flashcard owned by a single user.
type Fact struct {
	ID                 int64      `json:"id"`
	OwnerID            int64      `json:"owner_id"`
	Question           string     `json:"question"`
	Answer             string     `json:"answer"`
	EaseFactor         float64    `json:"ease_factor"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	LastReviewed       time.Time  `json:"last_reviewed"`
	NextDue            *time.Time `json:"next_due,omitempty"`
}

// NewFact returns an unsaved fact with the scheduling defaults applied:
// ease factor 2.5 and a first due date one day after now.
func NewFact(ownerID int64, question, answer string, now time.Time) *Fact {
	due := now.Add(FirstReviewDelay)
	return &Fact{
		OwnerID:      ownerID,
		Question:     question,
		Answer:       answer,
		EaseFactor:   DefaultEaseFactor,
		LastReviewed: now,
		NextDue:      &due,
	}
}

// IsNew reports whether the fact has not been persisted yet.
func (f *Fact) IsNew() bool {
	return f.ID == 0
}

// Clone returns a deep copy of the fact.
func (f *Fact) Clone() *Fact {
	out := *f
	if f.NextDue != nil {
		due := *f.NextDue
		out.NextDue = &due
	}
	return &out
}

// QuestionKey is the case-insensitive lookup key for a question. Facts are
// unique per (owner, QuestionKey).
func QuestionKey(question string) string {
	return strings.ToLower(question)
}
