package session

import "github.com/papercomputeco/studybot/pkg/flashcard"

// Step is the tagged conversation state of a session. Each concrete step
// carries only the payload its state needs.
type Step interface {
	State() State
}

// Idle is the DEFAULT state: no flow in progress.
type Idle struct{}

// AwaitQuestion waits for the question of Draft. A Draft with an id is an
// existing fact being changed.
type AwaitQuestion struct {
	Draft *flashcard.Fact
}

// AwaitAnswer waits for the answer of Draft, whose question is already set.
type AwaitAnswer struct {
	Draft *flashcard.Fact
}

// AwaitFactToChange waits for the id or question of the fact to change.
type AwaitFactToChange struct{}

// AwaitFactToDelete waits for the id or question of the fact to delete.
type AwaitFactToDelete struct{}

// ConfirmDelete waits for the user to confirm deleting Fact.
type ConfirmDelete struct {
	Fact *flashcard.Fact
}

// AwaitSilenceDuration waits for how long to silence study prompts.
type AwaitSilenceDuration struct{}

// AwaitStudyAnswer waits for the user's attempt at the question of Fact.
type AwaitStudyAnswer struct {
	Fact *flashcard.Fact
}

// AwaitStudyEasiness waits for the 0 to 5 rating of the review of Fact.
type AwaitStudyEasiness struct {
	Fact *flashcard.Fact
}

func (Idle) State() State                 { return StateDefault }
func (AwaitQuestion) State() State        { return StateAwaitQuestion }
func (AwaitAnswer) State() State          { return StateAwaitAnswer }
func (AwaitFactToChange) State() State    { return StateAwaitFactToChange }
func (AwaitFactToDelete) State() State    { return StateAwaitFactToDelete }
func (ConfirmDelete) State() State        { return StateConfirmDelete }
func (AwaitSilenceDuration) State() State { return StateAwaitSilenceDuration }
func (AwaitStudyAnswer) State() State     { return StateAwaitStudyAnswer }
func (AwaitStudyEasiness) State() State   { return StateAwaitStudyEasiness }

// draftOf returns the fact carried by step, or nil for payload-free steps.
func draftOf(step Step) *flashcard.Fact {
	switch s := step.(type) {
	case AwaitQuestion:
		return s.Draft
	case AwaitAnswer:
		return s.Draft
	case ConfirmDelete:
		return s.Fact
	case AwaitStudyAnswer:
		return s.Fact
	case AwaitStudyEasiness:
		return s.Fact
	default:
		return nil
	}
}

// stepFor builds the step for state carrying draft. ok is false when the
// state needs a draft and none was given.
func stepFor(state State, draft *flashcard.Fact) (Step, bool) {
	switch state {
	case StateDefault:
		return Idle{}, true
	case StateAwaitFactToChange:
		return AwaitFactToChange{}, true
	case StateAwaitFactToDelete:
		return AwaitFactToDelete{}, true
	case StateAwaitSilenceDuration:
		return AwaitSilenceDuration{}, true
	}

	if draft == nil {
		return nil, false
	}
	switch state {
	case StateAwaitQuestion:
		return AwaitQuestion{Draft: draft}, true
	case StateAwaitAnswer:
		return AwaitAnswer{Draft: draft}, true
	case StateConfirmDelete:
		return ConfirmDelete{Fact: draft}, true
	case StateAwaitStudyAnswer:
		return AwaitStudyAnswer{Fact: draft}, true
	case StateAwaitStudyEasiness:
		return AwaitStudyEasiness{Fact: draft}, true
	default:
		return nil, false
	}
}
