// Package cache provides a TTL-bounded memoization store for model
// completions. It is a pure optimization: clearing it never changes the
// meaning of a response, only whether a network call is skipped.
package cache

import (
	"sync"
	"time"

	"github.com/caira-ai/caira-engine/internal/logger"
)

type entry struct {
	value      string
	insertedAt time.Time
}

// Cache memoizes completion text keyed by a caller-derived digest of the
// prompt and sampling configuration. Expired entries are dropped lazily on
// Get or via PurgeExpired.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.value, true
}

// Put stores a value for key with the current time as insertion time.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, insertedAt: c.now()}
}

// PurgeExpired removes all expired entries and returns how many were dropped.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("Purged %d expired cache entries", removed)
	}
	return removed
}

// Len returns the number of entries currently stored, including any that
// have expired but not yet been purged.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
