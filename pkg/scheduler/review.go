package scheduler

import "time"

// Review records a single review of a fact and its scheduling outcome.
type Review struct {
	FactID             int64       `json:"fact_id"`
	OwnerID            int64       `json:"owner_id"`
	Performance        Performance `json:"performance"`
	ReviewedAt         time.Time   `json:"reviewed_at"`
	PreviousDue        *time.Time  `json:"previous_due,omitempty"`
	NextDue            time.Time   `json:"next_due"`
	IntervalDays       int         `json:"interval_days"`
	EaseFactor         float64     `json:"ease_factor"`
	ConsecutiveCorrect int         `json:"consecutive_correct"`
}
