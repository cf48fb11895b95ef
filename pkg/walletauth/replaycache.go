package walletauth

import (
	"errors"
	"sync"
	"time"
)

const (
	// DefaultReplayTTL is the default retention for seen tokens. Set it
	// to ttl + clock skew of the verifier; entries older than that can
	// no longer pass freshness anyway.
	DefaultReplayTTL = 5 * time.Minute

	// DefaultReplayMaxEntries is the default maximum number of tracked
	// tokens.
	DefaultReplayMaxEntries = 100_000

	// DefaultReplayCleanupInterval is the default interval for expired
	// entry cleanup.
	DefaultReplayCleanupInterval = 30 * time.Second

	// maxReplayKeyLength caps the key size accepted by the cache.
	maxReplayKeyLength = 1024
)

var (
	// ErrInvalidReplayKey indicates an empty or oversized cache key.
	ErrInvalidReplayKey = errors.New("invalid replay key")

	// ErrReplayCacheFull indicates the cache reached its maximum entry
	// count.
	ErrReplayCacheFull = errors.New("replay cache full: maximum entries reached")
)

// ReplayCache provides single-use enforcement for credential tokens.
// The protocol itself relies on the TTL window alone; a ReplayCache is an
// optional hardening layer the middleware uses when configured.
// Implementations must be safe for concurrent use.
type ReplayCache interface {
	// Record attempts to record a token key. Returns true if the key
	// was already recorded and has not expired (a replay).
	Record(key string) (isReplay bool, err error)

	// Close stops background goroutines and releases resources.
	Close() error
}

// MemoryReplayCache is an in-memory ReplayCache: a map from token key
// to expiry deadline behind a mutex. Record is a single critical
// section, which is what makes concurrent presentations of the same
// token resolve to exactly one winner.
type MemoryReplayCache struct {
	mu   sync.Mutex
	seen map[string]time.Time // key -> deadline after which the key is forgotten

	ttl        time.Duration
	maxEntries int

	cleanupInterval time.Duration // 0 means default, -1 means disabled
	stopCleanup     chan struct{}
	cleanupDone     chan struct{}
}

// ReplayCacheOption configures a MemoryReplayCache.
type ReplayCacheOption func(*MemoryReplayCache)

// WithReplayTTL sets the retention for seen tokens.
func WithReplayTTL(ttl time.Duration) ReplayCacheOption {
	return func(c *MemoryReplayCache) {
		c.ttl = ttl
	}
}

// WithReplayMaxEntries sets the maximum number of tracked tokens.
func WithReplayMaxEntries(max int) ReplayCacheOption {
	return func(c *MemoryReplayCache) {
		c.maxEntries = max
	}
}

// WithReplayCleanupInterval sets the cleanup interval. Pass 0 to disable
// background cleanup.
func WithReplayCleanupInterval(interval time.Duration) ReplayCacheOption {
	return func(c *MemoryReplayCache) {
		if interval <= 0 {
			c.cleanupInterval = -1
		} else {
			c.cleanupInterval = interval
		}
	}
}

// NewMemoryReplayCache creates an in-memory replay cache. Defaults:
// 5 minute retention, 100,000 entries, cleanup every 30 seconds.
func NewMemoryReplayCache(opts ...ReplayCacheOption) *MemoryReplayCache {
	c := &MemoryReplayCache{
		seen:        make(map[string]time.Time),
		ttl:         DefaultReplayTTL,
		maxEntries:  DefaultReplayMaxEntries,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cleanupInterval >= 0 {
		interval := c.cleanupInterval
		if interval == 0 {
			interval = DefaultReplayCleanupInterval
		}
		go c.cleanupLoop(interval)
	} else {
		close(c.cleanupDone)
	}

	return c
}

// Record attempts to record a token key.
func (c *MemoryReplayCache) Record(key string) (bool, error) {
	if key == "" || len(key) > maxReplayKeyLength {
		return false, ErrInvalidReplayKey
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := c.seen[key]; ok {
		if now.Before(deadline) {
			return true, nil
		}
		// The old presentation aged out; re-arm for this one.
		c.seen[key] = now.Add(c.ttl)
		return false, nil
	}

	if len(c.seen) >= c.maxEntries {
		// Try to make room from expired entries before refusing.
		c.sweepLocked(now)
		if len(c.seen) >= c.maxEntries {
			return false, ErrReplayCacheFull
		}
	}

	c.seen[key] = now.Add(c.ttl)
	return false, nil
}

// Close stops the cleanup goroutine.
func (c *MemoryReplayCache) Close() error {
	close(c.stopCleanup)
	<-c.cleanupDone
	return nil
}

// Len returns the current number of entries (for testing).
func (c *MemoryReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *MemoryReplayCache) cleanupLoop(interval time.Duration) {
	defer close(c.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCleanup:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(time.Now())
			c.mu.Unlock()
		}
	}
}

// sweepLocked drops expired entries. Caller holds c.mu.
func (c *MemoryReplayCache) sweepLocked(now time.Time) {
	for key, deadline := range c.seen {
		if !now.Before(deadline) {
			delete(c.seen, key)
		}
	}
}
