// Package cache provides the key/value stores backing the identity and
// favorites caches.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTTL is the entry lifetime used when neither the caller nor the store
// configuration gives one.
const DefaultTTL = 60 * time.Second

// Store is a byte-oriented key/value store with per-entry expiry. A ttl of
// zero selects the store's default.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// JSONCache stores values of type T as JSON in a Store. It satisfies
// domain.IdentityCache for T = domain.RawIdentity and domain.FavoritesCache
// for T = domain.CachedFavorites.
type JSONCache[T any] struct {
	store  Store
	logger *slog.Logger
}

// NewJSONCache wraps store.
func NewJSONCache[T any](store Store, logger *slog.Logger) *JSONCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONCache[T]{store: store, logger: logger}
}

// Get returns the value stored under key. Store and decode failures are
// logged and reported as a miss.
func (c *JSONCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "cache_key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.WarnContext(ctx, "cache entry undecodable", "cache_key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set stores v under key for ttl.
func (c *JSONCache[T]) Set(ctx context.Context, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.store.Set(ctx, key, data, ttl)
}
