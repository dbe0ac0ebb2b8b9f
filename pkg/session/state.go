package session

import "fmt"

// State names where in a multi-turn flow a user currently is.
type State int

const (
	StateDefault State = iota
	StateAwaitQuestion
	StateAwaitAnswer
	StateAwaitFactToChange
	StateAwaitFactToDelete
	StateConfirmDelete
	StateAwaitSilenceDuration
	StateAwaitStudyAnswer
	StateAwaitStudyEasiness
)

var stateNames = map[State]string{
	StateDefault:              "DEFAULT",
	StateAwaitQuestion:        "AWAIT_QUESTION",
	StateAwaitAnswer:          "AWAIT_ANSWER",
	StateAwaitFactToChange:    "AWAIT_FACT_TO_CHANGE",
	StateAwaitFactToDelete:    "AWAIT_FACT_TO_DELETE",
	StateConfirmDelete:        "CONFIRM_DELETE",
	StateAwaitSilenceDuration: "AWAIT_SILENCE_DURATION",
	StateAwaitStudyAnswer:     "AWAIT_STUDY_ANSWER",
	StateAwaitStudyEasiness:   "AWAIT_STUDY_EASINESS",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState returns the State with the given name.
func ParseState(name string) (State, error) {
	for state, n := range stateNames {
		if n == name {
			return state, nil
		}
	}
	return StateDefault, fmt.Errorf("unknown session state %q", name)
}
