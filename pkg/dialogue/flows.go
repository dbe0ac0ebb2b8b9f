package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/studybot/pkg/eventstream"
	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/nlp"
	"github.com/papercomputeco/studybot/pkg/scheduler"
	"github.com/papercomputeco/studybot/pkg/session"
	"github.com/papercomputeco/studybot/pkg/storage"
	"github.com/papercomputeco/studybot/pkg/utils"
)

func (m *Manager) onIdle(ctx context.Context, tc *turnContext) (outcome, error) {
	if tc.turn.Entities.Greeting(m.threshold) {
		name, err := m.names.FirstName(ctx, tc.turn.ExternalID)
		if err != nil {
			return outcome{}, fmt.Errorf("looking up first name: %w", err)
		}
		phrase := greetingPhrases[m.rand(len(greetingPhrases))]
		return reply(session.Idle{}, fmt.Sprintf(phrase, name)), nil
	}

	intent := tc.turn.Entities.Intent(m.threshold)
	m.logger.Debug("dispatching intent",
		"external_id", tc.turn.ExternalID,
		"intent", intent,
	)

	switch intent {
	case nlp.IntentAddFact:
		draft := &flashcard.Fact{OwnerID: tc.sess.UserID}
		return reply(session.AwaitQuestion{Draft: draft}, replyAskQuestion), nil

	case nlp.IntentChangeFact:
		return m.pickFact(ctx, tc, replyWhichToChange, session.AwaitFactToChange{})

	case nlp.IntentDeleteFact:
		return m.pickFact(ctx, tc, replyWhichToDelete, session.AwaitFactToDelete{})

	case nlp.IntentViewFacts:
		facts, err := m.facts.ListFacts(ctx, tc.sess.UserID)
		if err != nil {
			return outcome{}, fmt.Errorf("listing facts: %w", err)
		}
		if len(facts) == 0 {
			return reply(session.Idle{}, replyNoFacts), nil
		}
		return reply(session.Idle{}, append([]string{replyViewHeader}, listing(facts, true)...)...), nil

	case nlp.IntentSilenceStudying:
		if d, ok := tc.turn.Entities.Duration(m.threshold); ok {
			return m.silence(ctx, tc, d)
		}
		return reply(session.AwaitSilenceDuration{}, replyAskSilence), nil

	case nlp.IntentStudyNextFact:
		facts, err := m.facts.ListFacts(ctx, tc.sess.UserID)
		if err != nil {
			return outcome{}, fmt.Errorf("listing facts: %w", err)
		}
		next := scheduler.SelectNextDue(facts, tc.now)
		if next == nil {
			return reply(session.Idle{}, replyCaughtUp), nil
		}
		return reply(session.AwaitStudyAnswer{Fact: next}, letsStudy(next)), nil

	case nlp.IntentHelp:
		return reply(session.Idle{}, UsageInstructions), nil

	default:
		return reply(session.Idle{}, notUnderstood()), nil
	}
}

// pickFact lists the user's facts under header and waits in next for the
// user's choice. With no facts there is nothing to pick.
func (m *Manager) pickFact(ctx context.Context, tc *turnContext, header string, next session.Step) (outcome, error) {
	facts, err := m.facts.ListFacts(ctx, tc.sess.UserID)
	if err != nil {
		return outcome{}, fmt.Errorf("listing facts: %w", err)
	}
	if len(facts) == 0 {
		return reply(session.Idle{}, replyNoFacts), nil
	}
	return reply(next, append([]string{header}, listing(facts, false)...)...), nil
}

func (m *Manager) onQuestion(tc *turnContext, step session.AwaitQuestion) (outcome, error) {
	question := strings.TrimSpace(tc.turn.Text)
	if question == "" {
		return reply(step, replyEmptyQuestion), nil
	}

	draft := step.Draft.Clone()
	draft.Question = question
	return reply(session.AwaitAnswer{Draft: draft}, replyAskAnswer), nil
}

func (m *Manager) onAnswer(ctx context.Context, tc *turnContext, step session.AwaitAnswer) (outcome, error) {
	answer := strings.TrimSpace(tc.turn.Text)
	if answer == "" {
		return reply(step, replyEmptyAnswer), nil
	}

	draft := step.Draft
	var (
		stored *flashcard.Fact
		err    error
		verb   string
	)
	if draft.IsNew() {
		verb = "create"
		stored, err = m.facts.CreateFact(ctx, flashcard.NewFact(tc.sess.UserID, draft.Question, answer, tc.now))
	} else {
		verb = "update"
		stored, err = m.facts.UpdateFact(ctx, tc.sess.UserID, draft.ID, draft.Question, answer)
	}

	var conflict storage.ConflictError
	var notFound storage.NotFoundError
	switch {
	case err == nil:
		m.logger.Info("saved fact",
			"external_id", tc.turn.ExternalID,
			"fact_id", stored.ID,
			"question", utils.Truncate(stored.Question, logTextLimit),
			"action", verb,
		)
		return reply(session.Idle{}, saved(verb, stored)), nil
	case errors.As(err, &conflict), errors.As(err, &notFound):
		m.logger.Info("could not save fact",
			"external_id", tc.turn.ExternalID,
			"action", verb,
			"error", err,
		)
		return reply(session.Idle{}, saveFailed(verb)), nil
	default:
		return outcome{}, fmt.Errorf("saving fact: %w", err)
	}
}

func (m *Manager) onFactToChange(ctx context.Context, tc *turnContext) (outcome, error) {
	fact, err := m.resolveFact(ctx, tc.sess.UserID, tc.turn.Text)
	if err != nil {
		return notFoundOr(err)
	}
	return reply(session.AwaitQuestion{Draft: fact}, replyAskChangedQuestion), nil
}

func (m *Manager) onFactToDelete(ctx context.Context, tc *turnContext) (outcome, error) {
	fact, err := m.resolveFact(ctx, tc.sess.UserID, tc.turn.Text)
	if err != nil {
		return notFoundOr(err)
	}
	return reply(session.ConfirmDelete{Fact: fact}, confirmDelete(fact)), nil
}

func (m *Manager) onConfirmDelete(ctx context.Context, tc *turnContext, step session.ConfirmDelete) (outcome, error) {
	if !isConfirmation(tc.turn.Text) {
		return reply(session.Idle{}, replyDeleteCancelled), nil
	}

	err := m.facts.DeleteFact(ctx, tc.sess.UserID, step.Fact.ID)
	var notFound storage.NotFoundError
	switch {
	case err == nil:
		m.logger.Info("deleted fact",
			"external_id", tc.turn.ExternalID,
			"fact_id", step.Fact.ID,
		)
		return reply(session.Idle{}, replyDeleted), nil
	case errors.As(err, &notFound):
		return reply(session.Idle{}, replyDeleteFailed), nil
	default:
		return outcome{}, fmt.Errorf("deleting fact: %w", err)
	}
}

func (m *Manager) onSilenceDuration(ctx context.Context, tc *turnContext) (outcome, error) {
	d, ok := tc.turn.Entities.Duration(m.threshold)
	if !ok {
		return reply(session.Idle{}, replyNoDuration), nil
	}
	return m.silence(ctx, tc, d)
}

func (m *Manager) silence(ctx context.Context, tc *turnContext, d time.Duration) (outcome, error) {
	until := tc.now.Add(d)
	if err := m.facts.SetSilenceUntil(ctx, tc.sess.UserID, until); err != nil {
		return outcome{}, fmt.Errorf("silencing study prompts: %w", err)
	}
	m.logger.Info("silenced study prompts",
		"external_id", tc.turn.ExternalID,
		"until", until,
	)
	return reply(session.Idle{}, silenced(until)), nil
}

// onStudyAnswer reveals the answer of the fact being studied. The fact is
// read again so an edit made since the question was asked is shown.
func (m *Manager) onStudyAnswer(ctx context.Context, tc *turnContext, step session.AwaitStudyAnswer) (outcome, error) {
	fact, err := m.facts.GetFactByID(ctx, tc.sess.UserID, step.Fact.ID)
	if err != nil {
		return notFoundOr(err)
	}
	return reply(session.AwaitStudyEasiness{Fact: fact}, revealAnswer(fact)), nil
}

func (m *Manager) onStudyEasiness(ctx context.Context, tc *turnContext, step session.AwaitStudyEasiness) (outcome, error) {
	performance, err := scheduler.ParsePerformance(tc.turn.Text)
	if err != nil {
		return reply(step, replyBadRating), nil
	}

	fact, err := m.facts.GetFactByID(ctx, tc.sess.UserID, step.Fact.ID)
	if err != nil {
		return notFoundOr(err)
	}

	updated, review, err := scheduler.RecordReview(*fact, performance, tc.now)
	if err != nil {
		return outcome{}, err
	}
	if err := m.facts.SaveReview(ctx, &updated); err != nil {
		return notFoundOr(err)
	}

	m.logger.Info("recorded review",
		"external_id", tc.turn.ExternalID,
		"fact_id", updated.ID,
		"performance", performance,
		"interval_days", review.IntervalDays,
		"ease_factor", updated.EaseFactor,
	)
	m.metrics.ObserveReview(performance.Passed())
	m.publishReview(ctx, tc, review)

	return reply(session.Idle{}, replyStudied), nil
}

// publishReview emits the review event. Failures are logged only: the
// review itself is already stored.
func (m *Manager) publishReview(ctx context.Context, tc *turnContext, review scheduler.Review) {
	event := eventstream.NewFactReviewedEvent(tc.turn.ExternalID, review, tc.now)
	if err := m.publisher.PublishReview(ctx, event); err != nil {
		m.logger.Warn("failed to publish review event",
			"external_id", tc.turn.ExternalID,
			"event_id", event.EventID,
			"error", err,
		)
	}
}

// resolveFact finds the owner's fact named by text: a numeric id, otherwise
// the question compared case-insensitively.
func (m *Manager) resolveFact(ctx context.Context, ownerID int64, text string) (*flashcard.Fact, error) {
	ref := strings.TrimSpace(text)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return m.facts.GetFactByID(ctx, ownerID, id)
	}
	return m.facts.GetFactByQuestion(ctx, ownerID, ref)
}

// notFoundOr turns a NotFoundError into the not-found reply and any other
// error into a failed turn.
func notFoundOr(err error) (outcome, error) {
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return reply(session.Idle{}, replyFactNotFound), nil
	}
	return outcome{}, fmt.Errorf("looking up fact: %w", err)
}
