package eventstream

import "errors"

var (
	// ErrNilReviewEvent is returned when a publisher is handed a nil event.
	ErrNilReviewEvent = errors.New("nil review event")

	// ErrIncompleteReviewEvent is returned for an event missing its id,
	// type or user.
	ErrIncompleteReviewEvent = errors.New("incomplete review event")
)
