package scheduler

import "errors"

// ErrInvalidPerformance is returned for ratings outside [0, 5] or text that
// is not an integer.
var ErrInvalidPerformance = errors.New("scheduler: invalid performance rating")
