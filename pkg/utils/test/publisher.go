package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/studybot/pkg/eventstream"
)

// MockPublisher is a test eventstream.Publisher that records events.
type MockPublisher struct {
	mu sync.Mutex

	// Events accumulates all events passed to PublishReview.
	Events []*eventstream.FactReviewedEvent

	// FailPublish causes PublishReview to return an error.
	FailPublish bool

	Closed bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) PublishReview(_ context.Context, event *eventstream.FactReviewedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailPublish {
		return errors.New("mock publish failure")
	}
	p.Events = append(p.Events, event)
	return nil
}

func (p *MockPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Closed = true
	return nil
}

// Published returns a snapshot of the recorded events.
func (p *MockPublisher) Published() []*eventstream.FactReviewedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*eventstream.FactReviewedEvent(nil), p.Events...)
}
