// Package session keeps the per-user conversation snapshot between turns. The
// snapshot lives in a key-value cache with a sliding expiry; a missing or
// expired snapshot is silently rebuilt as a DEFAULT session from the fact
// repository.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

// Session is one user's conversation snapshot.
type Session struct {
	UserID     int64
	ExternalID string
	Step       Step

	// FirstContact is set by Load for a rebuilt session whose user has not
	// been welcomed yet. It is never persisted.
	FirstContact bool
}

// New returns a DEFAULT session for a user.
func New(userID int64, externalID string) *Session {
	return &Session{
		UserID:     userID,
		ExternalID: externalID,
		Step:       Idle{},
	}
}

// State reports the state of the session's current step.
func (s *Session) State() State {
	if s.Step == nil {
		return StateDefault
	}
	return s.Step.State()
}

// Draft returns the fact carried by the current step, or nil.
func (s *Session) Draft() *flashcard.Fact {
	if s.Step == nil {
		return nil
	}
	return draftOf(s.Step)
}

type snapshot struct {
	OwnerID    int64           `json:"owner_id"`
	ExternalID string          `json:"external_id"`
	State      string          `json:"state"`
	DraftFact  *flashcard.Fact `json:"draft_fact"`
}

// Encode serializes a session to its JSON snapshot.
func Encode(s *Session) ([]byte, error) {
	snap := snapshot{
		OwnerID:    s.UserID,
		ExternalID: s.ExternalID,
		State:      s.State().String(),
		DraftFact:  s.Draft(),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

// Decode parses a JSON snapshot produced by Encode.
func Decode(data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	state, err := ParseState(snap.State)
	if err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	step, ok := stepFor(state, snap.DraftFact)
	if !ok {
		return nil, fmt.Errorf("decoding session: state %s requires a draft fact", state)
	}

	return &Session{
		UserID:     snap.OwnerID,
		ExternalID: snap.ExternalID,
		Step:       step,
	}, nil
}
