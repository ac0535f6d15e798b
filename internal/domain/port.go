package domain

import (
	"context"
	"time"
)

// MarkerReader reports the client-held session signals. Absence is a normal
// state, not an error.
type MarkerReader interface {
	Read(ctx context.Context) SessionMarker
}

// IdentityCache stores raw whoami records. Get never fails the caller: adapter
// errors degrade to a miss. A zero ttl selects the adapter's default.
type IdentityCache interface {
	Get(ctx context.Context, key string) (*RawIdentity, bool)
	Set(ctx context.Context, key string, raw RawIdentity, ttl time.Duration) error
}

// IdentityFetcher performs one whoami round-trip. Returned errors are always
// *ResolutionError.
type IdentityFetcher interface {
	Fetch(ctx context.Context) (*Fetched, error)
}

// FavoritesCache stores favorites lists.
type FavoritesCache interface {
	Get(ctx context.Context, key string) (*CachedFavorites, bool)
	Set(ctx context.Context, key string, favorites CachedFavorites, ttl time.Duration) error
}

// FavoritesFetcher performs one bookmarks round-trip. Returned errors are
// always *ResolutionError.
type FavoritesFetcher interface {
	Fetch(ctx context.Context) (*RawFavorites, error)
}

// Resolution sources reported to a ResolutionRecorder.
const (
	SourceMarker    = "marker"
	SourceCache     = "cache"
	SourceNetwork   = "network"
	SourceCoalesced = "coalesced"
)

// ResolutionRecorder observes resolution outcomes for metrics.
type ResolutionRecorder interface {
	RecordResolution(service, source string, err *ResolutionError)
	RecordFetch(service string, duration time.Duration, err *ResolutionError)
}

// NopRecorder discards observations.
type NopRecorder struct{}

func (NopRecorder) RecordResolution(string, string, *ResolutionError) {}
func (NopRecorder) RecordFetch(string, time.Duration, *ResolutionError) {}
