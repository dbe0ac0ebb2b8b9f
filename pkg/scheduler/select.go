package scheduler

import (
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

// SelectNextDue returns the fact that has been due the longest at now, or nil
// when nothing is due. Facts without a due date are always eligible and sort
// before dated ones. Ties go to the smallest id.
func SelectNextDue(facts []*flashcard.Fact, now time.Time) *flashcard.Fact {
	var best *flashcard.Fact
	for _, f := range facts {
		if f == nil {
			continue
		}
		if f.NextDue != nil && f.NextDue.After(now) {
			continue
		}
		if best == nil || dueBefore(f, best) {
			best = f
		}
	}
	return best
}

// dueBefore orders facts by due date (undated first), then id.
func dueBefore(a, b *flashcard.Fact) bool {
	switch {
	case a.NextDue == nil && b.NextDue == nil:
		return a.ID < b.ID
	case a.NextDue == nil:
		return true
	case b.NextDue == nil:
		return false
	case a.NextDue.Equal(*b.NextDue):
		return a.ID < b.ID
	default:
		return a.NextDue.Before(*b.NextDue)
	}
}
