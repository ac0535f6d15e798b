package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is a size-bounded in-memory Store. The least recently used entry is
// evicted when full; entries also expire after their TTL.
type LRUCache struct {
	entries *expirable.LRU[string, cacheEntry]
	ttl     time.Duration
}

// NewLRUCache creates a cache holding at most size entries, defaulting to ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRUCache{
		// The LRU-wide TTL bounds every entry; shorter per-entry TTLs are
		// checked on read.
		entries: expirable.NewLRU[string, cacheEntry](size, nil, ttl),
		ttl:     ttl,
	}
}

// Get retrieves a live entry by key.
func (c *LRUCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, found := c.entries.Get(key)
	if !found {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key. TTLs longer than the cache default are capped.
func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}
	c.entries.Add(key, cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Len returns the number of entries held.
func (c *LRUCache) Len() int {
	return c.entries.Len()
}
