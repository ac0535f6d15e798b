package usecase

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session bundles the usecases bound to one client session.
type Session struct {
	Users     *ResolveUser
	Favorites *FetchFavorites
}

// ResolverPool keeps per-session values alive between requests so that
// concurrent requests from one session share a coalescer. Idle entries expire.
type ResolverPool[T any] struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, T]
}

// NewResolverPool creates a pool holding at most size entries, each evicted
// after idleTTL without use.
func NewResolverPool[T any](size int, idleTTL time.Duration) *ResolverPool[T] {
	return &ResolverPool[T]{
		entries: expirable.NewLRU[string, T](size, nil, idleTTL),
	}
}

// Get returns the value for key, building and storing it on first use.
func (p *ResolverPool[T]) Get(key string, build func() T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.entries.Get(key); ok {
		// Re-adding refreshes the idle deadline.
		p.entries.Add(key, v)
		return v
	}

	v := build()
	p.entries.Add(key, v)
	return v
}

// Len returns the number of live entries.
func (p *ResolverPool[T]) Len() int {
	return p.entries.Len()
}
