// Package dialogue runs the per-user conversation state machine: each turn
// loads the user's session, applies one transition and saves it back.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/papercomputeco/studybot/pkg/eventstream"
	"github.com/papercomputeco/studybot/pkg/eventstream/nop"
	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/metrics"
	"github.com/papercomputeco/studybot/pkg/nlp"
	"github.com/papercomputeco/studybot/pkg/scheduler"
	"github.com/papercomputeco/studybot/pkg/session"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/utils"
)

// logTextLimit caps user text copied into log records.
const logTextLimit = 60

// FirstNamer looks up the first name used to personalize replies.
// messenger.Transport satisfies it.
type FirstNamer interface {
	FirstName(ctx context.Context, externalID string) (string, error)
}

// Config is the configuration options for a Manager.
type Config struct {
	// Sessions loads and saves conversation snapshots.
	Sessions *session.Store

	// Facts is the fact repository.
	Facts storage.Driver

	// Names resolves first names for greetings and the welcome message.
	Names FirstNamer

	// Publisher receives a review event after each recorded review.
	// Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// Metrics is optional.
	Metrics *metrics.Collector

	// Threshold is the minimum confidence for a trusted entity
	// (defaults to nlp.DefaultConfidenceThreshold).
	Threshold float64

	// Now defaults to time.Now.
	Now func() time.Time

	// Rand picks a greeting phrase in [0, n). Defaults to rand.IntN.
	Rand func(n int) int

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Turn is one inbound user message.
type Turn struct {
	ExternalID string
	Text       string
	Entities   nlp.Entities
}

// Result is the outcome of a turn: the ordered replies to send and the
// state the session was left in.
type Result struct {
	Replies []string
	State   session.State
}

// Manager applies conversation turns. It holds no per-user state; every
// call works on the session it loads.
type Manager struct {
	sessions  *session.Store
	facts     storage.Driver
	names     FirstNamer
	publisher eventstream.Publisher
	metrics   *metrics.Collector
	threshold float64
	now       func() time.Time
	rand      func(n int) int
	logger    *slog.Logger
}

// NewManager creates a Manager.
func NewManager(c *Config) (*Manager, error) {
	if c.Sessions == nil {
		return nil, errors.New("dialogue manager requires a session store")
	}
	if c.Facts == nil {
		return nil, errors.New("dialogue manager requires a fact repository")
	}
	if c.Names == nil {
		return nil, errors.New("dialogue manager requires a first name source")
	}

	m := &Manager{
		sessions:  c.Sessions,
		facts:     c.Facts,
		names:     c.Names,
		publisher: c.Publisher,
		metrics:   c.Metrics,
		threshold: c.Threshold,
		now:       c.Now,
		rand:      c.Rand,
		logger:    c.Logger,
	}
	if m.publisher == nil {
		m.publisher = nop.NewPublisher()
	}
	if m.threshold <= 0 {
		m.threshold = nlp.DefaultConfidenceThreshold
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rand == nil {
		m.rand = rand.IntN
	}
	if m.logger == nil {
		m.logger = logger.Nop()
	}
	return m, nil
}

// turnContext carries what a single transition needs.
type turnContext struct {
	sess *session.Session
	turn Turn
	now  time.Time
}

// outcome is what a transition produced.
type outcome struct {
	replies []string
	next    session.Step
}

func reply(next session.Step, replies ...string) outcome {
	return outcome{replies: replies, next: next}
}

// HandleTurn applies one user message to the user's session. On error the
// session is left as it was before the turn.
func (m *Manager) HandleTurn(ctx context.Context, turn Turn) (Result, error) {
	start := time.Now()

	sess, err := m.sessions.Load(ctx, turn.ExternalID)
	if err != nil {
		m.metrics.ObserveTurn(session.StateDefault.String(), err, time.Since(start))
		return Result{}, err
	}

	from := sess.State()
	tc := &turnContext{sess: sess, turn: turn, now: m.now()}

	var out outcome
	if sess.FirstContact {
		out, err = m.welcome(ctx, tc)
	} else {
		out, err = m.transition(ctx, tc)
	}
	if err != nil {
		m.metrics.ObserveTurn(from.String(), err, time.Since(start))
		return Result{}, fmt.Errorf("handling turn in state %s: %w", from, err)
	}

	sess.Step = out.next
	if err := m.sessions.Save(ctx, sess); err != nil {
		m.metrics.ObserveTurn(from.String(), err, time.Since(start))
		return Result{}, err
	}
	if sess.FirstContact {
		if err := m.markWelcomed(ctx, sess); err != nil {
			m.metrics.ObserveTurn(from.String(), err, time.Since(start))
			return Result{}, err
		}
	}

	m.logger.Debug("handled turn",
		"external_id", turn.ExternalID,
		"text", utils.Truncate(turn.Text, logTextLimit),
		"from", from,
		"to", sess.State(),
		"replies", len(out.replies),
	)
	m.metrics.ObserveTurn(sess.State().String(), nil, time.Since(start))

	return Result{Replies: out.replies, State: sess.State()}, nil
}

// PromptStudy proactively starts a study exchange with a user who is idle
// and has a fact due. ok is false when nothing was prompted: the user is
// mid-flow or has nothing due.
func (m *Manager) PromptStudy(ctx context.Context, externalID string) (Result, bool, error) {
	sess, err := m.sessions.Load(ctx, externalID)
	if err != nil {
		return Result{}, false, err
	}
	if sess.State() != session.StateDefault {
		m.logger.Debug("skipping study prompt for user mid-flow",
			"external_id", externalID,
			"state", sess.State(),
		)
		return Result{State: sess.State()}, false, nil
	}

	facts, err := m.facts.ListFacts(ctx, sess.UserID)
	if err != nil {
		return Result{}, false, fmt.Errorf("listing facts: %w", err)
	}
	next := scheduler.SelectNextDue(facts, m.now())
	if next == nil {
		return Result{State: sess.State()}, false, nil
	}

	sess.Step = session.AwaitStudyAnswer{Fact: next}
	if err := m.sessions.Save(ctx, sess); err != nil {
		return Result{}, false, err
	}
	m.metrics.ObservePrompt()

	return Result{
		Replies: []string{replyTimeToStudy, next.Question},
		State:   sess.State(),
	}, true, nil
}

func (m *Manager) welcome(ctx context.Context, tc *turnContext) (outcome, error) {
	name, err := m.names.FirstName(ctx, tc.turn.ExternalID)
	if err != nil {
		return outcome{}, fmt.Errorf("looking up first name: %w", err)
	}
	m.logger.Info("welcoming new user", "external_id", tc.turn.ExternalID)
	return reply(session.Idle{}, welcome(name)), nil
}

// markWelcomed persists that the welcome went out. When that fails the saved
// snapshot is dropped, so the next turn rebuilds the session and welcomes
// the user again.
func (m *Manager) markWelcomed(ctx context.Context, sess *session.Session) error {
	err := m.facts.MarkWelcomed(ctx, sess.UserID)
	if err == nil {
		return nil
	}
	if forgetErr := m.sessions.Forget(ctx, sess.ExternalID); forgetErr != nil {
		m.logger.Error("failed to drop session after welcome failure",
			"external_id", sess.ExternalID,
			"error", forgetErr,
		)
	}
	return fmt.Errorf("marking user welcomed: %w", err)
}

// transition dispatches on the session's current step.
func (m *Manager) transition(ctx context.Context, tc *turnContext) (outcome, error) {
	switch step := tc.sess.Step.(type) {
	case session.AwaitQuestion:
		return m.onQuestion(tc, step)
	case session.AwaitAnswer:
		return m.onAnswer(ctx, tc, step)
	case session.AwaitFactToChange:
		return m.onFactToChange(ctx, tc)
	case session.AwaitFactToDelete:
		return m.onFactToDelete(ctx, tc)
	case session.ConfirmDelete:
		return m.onConfirmDelete(ctx, tc, step)
	case session.AwaitSilenceDuration:
		return m.onSilenceDuration(ctx, tc)
	case session.AwaitStudyAnswer:
		return m.onStudyAnswer(ctx, tc, step)
	case session.AwaitStudyEasiness:
		return m.onStudyEasiness(ctx, tc, step)
	default:
		return m.onIdle(ctx, tc)
	}
}
