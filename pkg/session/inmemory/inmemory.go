// Package inmemory provides a map-backed session cache with expiry, for
// tests and single-process use.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/studybot/pkg/session"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// sweepInterval bounds how often Set scans the map for expired entries.
const sweepInterval = time.Minute

// Cache implements session.Cache using an in-memory map. Expired entries are
// dropped on access and swept from Set at most once per sweepInterval, so
// keys that are never read again do not accumulate.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return NewCacheWithClock(time.Now)
}

// NewCacheWithClock creates an empty cache that reads time from now.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries:   make(map[string]entry),
		now:       now,
		lastSweep: now(),
	}
}

// Get returns a copy of the live value for key, or session.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, session.ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, session.ErrCacheMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value under key until ttl elapses.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= sweepInterval {
		c.sweep(now)
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = entry{value: stored, expiresAt: now.Add(ttl)}
	return nil
}

// sweep drops every entry expired at now. Callers hold c.mu.
func (c *Cache) sweep(now time.Time) {
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.lastSweep = now
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// dropped.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close is a no-op for the in-memory cache.
func (c *Cache) Close() error {
	return nil
}
