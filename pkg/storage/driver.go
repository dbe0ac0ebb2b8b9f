// Package storage defines the fact repository: the persisted users and facts
// behind every conversation.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
)

// Driver defines the interface for persisting and retrieving users and facts
// in a storage backend. Every fact lookup is scoped to an owner: a fact owned
// by another user is reported as not found.
//
// Each mutating call is a single transaction. Failures surface as
// NotFoundError, ConflictError or ValidationError where they apply.
type Driver interface {
	// CreateFact inserts a new fact and returns it with its assigned id.
	// Returns ConflictError when the owner already has a fact with the same
	// question, compared case-insensitively, and ValidationError when the
	// question or answer is blank.
	CreateFact(ctx context.Context, fact *flashcard.Fact) (*flashcard.Fact, error)

	// UpdateFact replaces the question and answer of an existing fact. It
	// fails like CreateFact on duplicate or blank text.
	UpdateFact(ctx context.Context, ownerID, id int64, question, answer string) (*flashcard.Fact, error)

	// SaveReview persists the scheduling fields of a fact after a review:
	// ease factor, consecutive correct answers, last reviewed and next due.
	SaveReview(ctx context.Context, fact *flashcard.Fact) error

	// DeleteFact removes a fact.
	DeleteFact(ctx context.Context, ownerID, id int64) error

	// GetFactByID retrieves a fact by id.
	GetFactByID(ctx context.Context, ownerID, id int64) (*flashcard.Fact, error)

	// GetFactByQuestion retrieves a fact by its question, ignoring case.
	GetFactByQuestion(ctx context.Context, ownerID int64, question string) (*flashcard.Fact, error)

	// ListFacts returns all facts of an owner ordered by id.
	ListFacts(ctx context.Context, ownerID int64) ([]*flashcard.Fact, error)

	// GetOrCreateUser returns the user with the given external id, creating
	// it when it does not exist. created reports whether this call created it.
	GetOrCreateUser(ctx context.Context, externalID string) (user *flashcard.User, created bool, err error)

	// GetUser retrieves a user by external id.
	GetUser(ctx context.Context, externalID string) (*flashcard.User, error)

	// MarkWelcomed records that the user has been greeted. Users start
	// unwelcomed, so a first turn that fails is welcomed again next time.
	MarkWelcomed(ctx context.Context, userID int64) error

	// SetSilenceUntil stores the time until which proactive prompts are suppressed.
	SetSilenceUntil(ctx context.Context, userID int64, until time.Time) error

	// ListUsersWithDueFacts returns the users that are not silenced at now and
	// own at least one fact due at or before now (or without a due date).
	ListUsersWithDueFacts(ctx context.Context, now time.Time) ([]*flashcard.User, error)

	// Close closes the store and releases any resources.
	Close() error
}
