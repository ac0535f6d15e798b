package handler

import (
	"net/http"

	"user-hub/internal/adapter/marker"
	"user-hub/internal/infrastructure/metrics"
	"user-hub/internal/usecase"
)

// SessionFactory builds the usecases for one session. cookies is nil for a
// request without a session.
type SessionFactory func(key string, cookies []*http.Cookie) *usecase.Session

// Sessions hands each request the usecases bound to its session cookies.
// Requests carrying the same cookies share one set, and so share its
// in-flight fetches.
type Sessions struct {
	pool      *usecase.ResolverPool[*usecase.Session]
	build     SessionFactory
	forwarded []string
	anonymous *usecase.Session
}

// NewSessions creates a session source over pool. Cookies named in forwarded
// are passed to the factory alongside the session pair, e.g. the identity
// provider's own session cookie.
func NewSessions(pool *usecase.ResolverPool[*usecase.Session], build SessionFactory, forwarded ...string) *Sessions {
	return &Sessions{
		pool:      pool,
		build:     build,
		forwarded: forwarded,
		anonymous: build("", nil),
	}
}

// For returns the usecases for r's session.
func (s *Sessions) For(r *http.Request) *usecase.Session {
	key, ok := marker.SessionKey(r, s.forwarded...)
	if !ok {
		return s.anonymous
	}

	session := s.pool.Get(key, func() *usecase.Session {
		return s.build(key, marker.SessionCookies(r, s.forwarded...))
	})
	metrics.SetPooledSessions(s.pool.Len())
	return session
}
