// Package cache provides a small in-memory TTL cache for memoizing
// expensive read computations. Entries expire after a fixed TTL; writers
// never invalidate, so readers may observe results up to one TTL stale.
package cache

import (
	"sync"
	"time"
)

// Cache keys for the read views.
const (
	KeyLeaderboard    = "leaderboard:current"
	KeyHistory        = "leaderboard:history"
	KeyUpstream       = "upstream:rankings"
	UserHistoryPrefix = "history:user:"
)

// entry is one cached value with its expiry deadline.
type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a thread-safe map cache with a fixed TTL per entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	hits   func()
	misses func()

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithStats registers callbacks invoked on every hit and miss.
func WithStats(hit, miss func()) Option {
	return func(c *Cache) {
		c.hits = hit
		c.misses = miss
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries expire ttl after being set. A
// background goroutine sweeps expired entries once per ttl.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		if c.misses != nil {
			c.misses()
		}
		return nil, false
	}

	if c.hits != nil {
		c.hits()
	}
	return e.data, true
}

// Set stores value under key with the cache's TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{data: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of live entries, expired included until swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) cleanupLoop() {
	interval := c.ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := c.now()
		c.mu.Lock()
		for key, e := range c.entries {
			if now.After(e.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
