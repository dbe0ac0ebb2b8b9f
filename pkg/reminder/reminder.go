// Package reminder periodically prompts users who have facts due for study.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/studybot/pkg/dialogue"
	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/metrics"
	"github.com/papercomputeco/studybot/pkg/worker"
)

// DefaultInterval is how often Run checks for due facts.
const DefaultInterval = time.Hour

// DueUsers lists the users eligible for a prompt. storage.Driver satisfies it.
type DueUsers interface {
	ListUsersWithDueFacts(ctx context.Context, now time.Time) ([]*flashcard.User, error)
}

// Prompter starts a study exchange. *dialogue.Manager satisfies it.
type Prompter interface {
	PromptStudy(ctx context.Context, externalID string) (dialogue.Result, bool, error)
}

// Sender delivers prompts.
type Sender interface {
	SendMessage(ctx context.Context, recipientID, text string, messageType messenger.MessageType) error
}

// Config is the configuration options for a Reminder.
type Config struct {
	Users    DueUsers
	Prompter Prompter
	Sender   Sender

	// Pool, when set, runs each prompt on the worker owning the user so it
	// never races that user's turns. Without a pool prompts run inline.
	Pool *worker.Pool

	// Interval between runs (defaults to 1h).
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	// Metrics is optional.
	Metrics *metrics.Collector

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Reminder sends proactive study prompts.
type Reminder struct {
	users    DueUsers
	prompter Prompter
	sender   Sender
	pool     *worker.Pool
	interval time.Duration
	now      func() time.Time
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates a Reminder.
func New(c *Config) (*Reminder, error) {
	if c.Users == nil || c.Prompter == nil || c.Sender == nil {
		return nil, errors.New("reminder requires users, a prompter and a sender")
	}

	r := &Reminder{
		users:    c.Users,
		prompter: c.Prompter,
		sender:   c.Sender,
		pool:     c.Pool,
		interval: c.Interval,
		now:      c.Now,
		metrics:  c.Metrics,
		logger:   c.Logger,
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = logger.Nop()
	}
	return r, nil
}

// RunOnce prompts every user with a fact due at now. Without a pool it
// returns how many prompts were sent; with a pool, how many were enqueued,
// and a user found mid-flow is skipped when the job runs.
func (r *Reminder) RunOnce(ctx context.Context, now time.Time) (int, error) {
	users, err := r.users.ListUsersWithDueFacts(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing users with due facts: %w", err)
	}

	dispatched := 0
	for _, u := range users {
		externalID := u.ExternalID

		if r.pool == nil {
			sent, err := r.prompt(ctx, externalID)
			if err != nil {
				r.logger.Error("failed to prompt user",
					"external_id", externalID,
					"error", err,
				)
				continue
			}
			if sent {
				dispatched++
			}
			continue
		}

		ok := r.pool.Enqueue(worker.Job{
			Key:  externalID,
			Name: "study-prompt",
			Run: func(ctx context.Context) error {
				_, err := r.prompt(ctx, externalID)
				return err
			},
		})
		if !ok {
			r.metrics.ObserveDroppedJob()
			r.logger.Error("dropped study prompt, worker queue full",
				"external_id", externalID,
			)
			continue
		}
		dispatched++
	}

	r.logger.Info("study reminder run complete",
		"due_users", len(users),
		"dispatched", dispatched,
	)
	return dispatched, nil
}

// Run calls RunOnce every interval until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting study reminders", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx, r.now()); err != nil {
				r.logger.Error("study reminder run failed", "error", err)
			}
		}
	}
}

func (r *Reminder) prompt(ctx context.Context, externalID string) (bool, error) {
	res, ok, err := r.prompter.PromptStudy(ctx, externalID)
	if err != nil {
		return false, err
	}
	if !ok {
		r.logger.Debug("no study prompt sent",
			"external_id", externalID,
			"state", res.State,
		)
		return false, nil
	}

	for _, text := range res.Replies {
		if err := r.sender.SendMessage(ctx, externalID, text, messenger.MessageTypeNonPromotional); err != nil {
			return false, fmt.Errorf("sending study prompt: %w", err)
		}
		r.metrics.ObserveReply(string(messenger.MessageTypeNonPromotional))
	}
	return true, nil
}
