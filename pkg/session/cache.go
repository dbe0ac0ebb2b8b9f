package session

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when no live value exists for a key.
var ErrCacheMiss = errors.New("session: cache miss")

// Cache is the string-keyed store holding encoded snapshots.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, expiring after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}
