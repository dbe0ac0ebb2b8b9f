// Package scheduler implements the SM-2 family spaced repetition rules used to
// decide when a fact is studied again.
//
// Everything here is a pure function over flashcard.Fact values; persisting
// the result is the caller's job.
//
//	perf, err := scheduler.ParsePerformance("4")
//	if err != nil {
//	    // re-prompt
//	}
//	updated, review, err := scheduler.RecordReview(*fact, perf, time.Now())
//
// Intervals are added to the fact's previous due date rather than to the
// review time, so a fact reviewed late can stay due in the past until it has
// been reviewed enough times to catch up.
package scheduler
