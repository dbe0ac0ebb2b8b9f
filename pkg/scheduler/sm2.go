package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

const day = 24 * time.Hour

// Interval returns the number of days until the next review after
// consecutiveCorrect correct answers in a row.
func Interval(consecutiveCorrect int, easeFactor float64) int {
	switch consecutiveCorrect {
	case 1:
		return 1
	case 2:
		return 6
	default:
		return int(math.Floor(float64(consecutiveCorrect) * easeFactor))
	}
}

// NextEaseFactor applies the ease adjustment for a review rated p.
// The result never drops below flashcard.MinEaseFactor.
func NextEaseFactor(easeFactor float64, p Performance) float64 {
	miss := float64(MaxPerformance - p)
	next := easeFactor + (0.1 - miss*(0.8+miss*0.2))
	return math.Max(flashcard.MinEaseFactor, next)
}

// RecordReview applies one review rated p to fact at now and returns the
// updated fact together with a Review record. The input fact is not mutated.
//
// The interval is added to the previous due date, not to now. A fact without
// a due date is scheduled from now.
func RecordReview(fact flashcard.Fact, p Performance, now time.Time) (flashcard.Fact, Review, error) {
	if !p.IsValid() {
		return fact, Review{}, fmt.Errorf("%w: %d", ErrInvalidPerformance, int(p))
	}

	out := *fact.Clone()

	if p.Passed() {
		out.ConsecutiveCorrect++
	} else {
		out.ConsecutiveCorrect = 0
	}

	interval := Interval(out.ConsecutiveCorrect, out.EaseFactor)

	base := now
	var previous *time.Time
	if fact.NextDue != nil {
		prev := *fact.NextDue
		previous = &prev
		base = prev
	}
	next := base.Add(time.Duration(interval) * day)
	out.NextDue = &next

	out.EaseFactor = NextEaseFactor(out.EaseFactor, p)
	out.LastReviewed = now

	review := Review{
		FactID:             out.ID,
		OwnerID:            out.OwnerID,
		Performance:        p,
		ReviewedAt:         now,
		PreviousDue:        previous,
		NextDue:            next,
		IntervalDays:       interval,
		EaseFactor:         out.EaseFactor,
		ConsecutiveCorrect: out.ConsecutiveCorrect,
	}

	return out, review, nil
}
