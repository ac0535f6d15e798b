package usecase

import (
	"context"
	"log/slog"
	"time"

	"user-hub/internal/domain"
)

// DefaultFavoritesCacheKey is the favorites cache key used when none is
// configured.
const DefaultFavoritesCacheKey = "loggedInUserFavorites"

// UserResolver resolves the current user.
type UserResolver interface {
	Execute(ctx context.Context) domain.Result
}

// FetchFavorites returns the current user's favorites. The user is resolved
// first; the favorites list is then served from cache when it belongs to that
// user, or fetched once per concurrent burst and written through.
type FetchFavorites struct {
	users   UserResolver
	cache   domain.FavoritesCache
	fetcher domain.FavoritesFetcher
	logger  *slog.Logger
	opts    options
	flight  Coalescer[domain.FavoritesResult]
}

// NewFetchFavorites creates a new FetchFavorites usecase. cache may be nil.
func NewFetchFavorites(u UserResolver, c domain.FavoritesCache, f domain.FavoritesFetcher, l *slog.Logger, opts ...Option) *FetchFavorites {
	if l == nil {
		l = slog.Default()
	}
	return &FetchFavorites{
		users:   u,
		cache:   c,
		fetcher: f,
		logger:  l,
		opts:    buildOptions(DefaultFavoritesCacheKey, opts),
	}
}

// Execute resolves the current user's favorites.
func (uc *FetchFavorites) Execute(ctx context.Context) domain.FavoritesResult {
	ctx, span := tracer.Start(ctx, "FetchFavorites.Execute")
	defer span.End()

	user := uc.users.Execute(ctx)
	if !user.OK() {
		err := user.Err
		if err == nil {
			err = domain.NewNotLoggedIn("no identity resolved", nil)
		}
		err = err.WithService(domain.ServiceFavorites)
		uc.opts.recorder.RecordResolution(domain.ServiceFavorites, domain.SourceMarker, err)
		annotateSpan(span, err)
		return domain.FavoritesResult{Err: err}
	}

	if cached, ok := uc.cachedFavorites(ctx, user.Identity); ok {
		uc.opts.recorder.RecordResolution(domain.ServiceFavorites, domain.SourceCache, nil)
		return domain.FavoritesResult{Favorites: cached}
	}

	result, shared := uc.flight.Do(ctx, func(ctx context.Context) domain.FavoritesResult {
		return uc.fetchAndStore(ctx, user.Identity)
	})

	source := domain.SourceNetwork
	if shared {
		source = domain.SourceCoalesced
	}
	uc.opts.recorder.RecordResolution(domain.ServiceFavorites, source, result.Err)
	annotateSpan(span, result.Err)
	return result
}

func (uc *FetchFavorites) cachedFavorites(ctx context.Context, identity *domain.Identity) (*domain.UserFavorites, bool) {
	if uc.cache == nil {
		return nil, false
	}

	cached, found := uc.cache.Get(ctx, uc.opts.cacheKey)
	if !found {
		return nil, false
	}
	if !domain.UsernameMatches(cached.Owner, identity.Username) {
		uc.logger.DebugContext(ctx, "cached favorites belong to another user, bypassing",
			"cache_key", uc.opts.cacheKey)
		return nil, false
	}

	return domain.NewUserFavorites(identity, cached.Favorites), true
}

func (uc *FetchFavorites) fetchAndStore(ctx context.Context, identity *domain.Identity) domain.FavoritesResult {
	start := time.Now()
	raw, err := uc.fetcher.Fetch(ctx)
	rerr := domain.AsResolutionError(err)
	if rerr == nil && raw == nil {
		rerr = domain.NewDecodingError("empty favorites response", nil)
	}
	if rerr != nil {
		rerr = rerr.WithService(domain.ServiceFavorites)
	}
	uc.opts.recorder.RecordFetch(domain.ServiceFavorites, time.Since(start), rerr)

	if rerr != nil {
		logResolutionError(ctx, uc.logger, "favorites fetch failed", rerr)
		return domain.FavoritesResult{Err: rerr}
	}

	if uc.cache != nil {
		record := domain.CachedFavorites{Owner: identity.Username, Favorites: *raw}
		if err := uc.cache.Set(ctx, uc.opts.cacheKey, record, uc.opts.cacheTTL); err != nil {
			uc.logger.WarnContext(ctx, "failed to cache favorites",
				"cache_key", uc.opts.cacheKey,
				"error", err)
		}
	}

	return domain.FavoritesResult{Favorites: domain.NewUserFavorites(identity, *raw)}
}
