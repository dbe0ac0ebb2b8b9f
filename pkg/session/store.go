package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/logger"
)

const (
	// DefaultTTL is the idle window after which a snapshot expires.
	DefaultTTL = 300 * time.Second

	keyPrefix = "studybot:session:"
)

// UserSource resolves users for sessions rebuilt after a cache miss.
type UserSource interface {
	GetOrCreateUser(ctx context.Context, externalID string) (*flashcard.User, bool, error)
}

// Config is the configuration options for a Store.
type Config struct {
	// Cache holds the encoded snapshots.
	Cache Cache

	// Users rebuilds sessions on a miss. A storage.Driver satisfies it.
	Users UserSource

	// TTL is the sliding idle expiry (defaults to 300s).
	TTL time.Duration

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Store loads and saves sessions.
type Store struct {
	cache  Cache
	users  UserSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore creates a Store.
func NewStore(c *Config) (*Store, error) {
	if c.Cache == nil {
		return nil, errors.New("session store requires a cache")
	}
	if c.Users == nil {
		return nil, errors.New("session store requires a user source")
	}

	s := &Store{
		cache:  c.Cache,
		users:  c.Users,
		ttl:    c.TTL,
		logger: c.Logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s, nil
}

// Key returns the cache key of a user's snapshot.
func Key(externalID string) string {
	return keyPrefix + externalID
}

// Load returns the user's session. A miss, an expired snapshot or an
// undecodable one all yield a fresh DEFAULT session, creating the user if
// needed. Rebuilt sessions of users not yet welcomed carry FirstContact.
func (s *Store) Load(ctx context.Context, externalID string) (*Session, error) {
	data, err := s.cache.Get(ctx, Key(externalID))
	switch {
	case err == nil:
		sess, decodeErr := Decode(data)
		if decodeErr == nil {
			return sess, nil
		}
		s.logger.Warn("discarding undecodable session",
			"external_id", externalID,
			"error", decodeErr,
		)
	case errors.Is(err, ErrCacheMiss):
	default:
		return nil, fmt.Errorf("loading session: %w", err)
	}

	user, created, err := s.users.GetOrCreateUser(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("rebuilding session: %w", err)
	}

	s.logger.Debug("rebuilt session",
		"external_id", externalID,
		"user_id", user.ID,
		"new_user", created,
	)

	sess := New(user.ID, externalID)
	sess.FirstContact = !user.Welcomed
	return sess, nil
}

// Save writes the session and restarts its expiry.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, Key(sess.ExternalID), data, s.ttl); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Forget drops the user's snapshot so the next Load starts over.
func (s *Store) Forget(ctx context.Context, externalID string) error {
	if err := s.cache.Delete(ctx, Key(externalID)); err != nil {
		return fmt.Errorf("forgetting session: %w", err)
	}
	return nil
}

// Close closes the underlying cache.
func (s *Store) Close() error {
	return s.cache.Close()
}
