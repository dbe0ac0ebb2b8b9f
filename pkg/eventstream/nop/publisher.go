// Package nop provides the publisher used when no event stream is configured.
package nop

import (
	"context"
	"sync/atomic"

	"github.com/papercomputeco/studybot/pkg/eventstream"
)

// Publisher validates review events and drops them.
type Publisher struct {
	dropped atomic.Int64
}

// NewPublisher creates a no-op publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishReview rejects invalid events and discards valid ones.
func (p *Publisher) PublishReview(_ context.Context, event *eventstream.FactReviewedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	p.dropped.Add(1)
	return nil
}

// Dropped returns how many valid events were discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) Close() error {
	return nil
}
