package marketdata

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached indicator snapshot with an explicit expiry.
type Entry struct {
	Indicators Indicators `json:"indicators"`
	FetchedAt  time.Time  `json:"fetched_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache stores indicator snapshots under string keys. Implementations
// treat errors and expired entries as misses on Get.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, e Entry) error
}

// MemoryCache is an in-process Cache. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the entry for key. Expired entries are dropped and
// reported as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if e.Expired(c.now()) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return e, true
}

// Set stores the entry under key, replacing any previous value.
func (c *MemoryCache) Set(ctx context.Context, key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}
