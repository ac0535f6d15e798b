package main

import (
	"fmt"
	"log/slog"
	"net/http"

	adapterhandler "user-hub/internal/adapter/handler"
	"user-hub/internal/adapter/gateway"
	"user-hub/internal/adapter/marker"
	"user-hub/internal/domain"
	infracache "user-hub/internal/infrastructure/cache"
	"user-hub/internal/infrastructure/metrics"
	"user-hub/internal/usecase"

	"user-hub/config"
)

// cacheBackend is the configured Store with its lifecycle hooks.
type cacheBackend struct {
	store  infracache.Store
	close  func() error
	health map[string]adapterhandler.Pinger
}

func newCacheBackend(cfg *config.Config) (*cacheBackend, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		redisCache, err := infracache.NewRedisCacheWithURL(cfg.RedisURL, infracache.DefaultRedisPrefix, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		return &cacheBackend{
			store:  redisCache,
			close:  redisCache.Close,
			health: map[string]adapterhandler.Pinger{"redis": redisCache},
		}, nil
	case config.CacheLRU:
		return &cacheBackend{
			store: infracache.NewLRUCache(cfg.LRUSize, cfg.CacheTTL),
			close: func() error { return nil },
		}, nil
	case config.CacheMemory:
		mem := infracache.NewMemoryCache(cfg.CacheTTL)
		return &cacheBackend{store: mem, close: mem.Close}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// newSessionFactory builds per-session usecases. Each session gets its own
// fetchers carrying its cookies and its own cache keys; all sessions share
// the HTTP transport and the cache store.
func newSessionFactory(cfg *config.Config, store infracache.Store, logger *slog.Logger) adapterhandler.SessionFactory {
	baseClient := gateway.NewHTTPClient(cfg.FetchTimeout, nil)
	identityCache := infracache.NewJSONCache[domain.RawIdentity](store, logger)
	favoritesCache := infracache.NewJSONCache[domain.CachedFavorites](store, logger)

	return func(key string, cookies []*http.Cookie) *usecase.Session {
		client := sessionClient(baseClient, cookies, logger, cfg.UserServiceURL, cfg.FavoritesURL)

		var fetcher domain.IdentityFetcher
		if cfg.IdentityBackend == config.BackendKratos {
			fetcher = gateway.NewKratosGateway(cfg.KratosURL, cfg.PrimaryDomain, baseClient, cookies,
				gateway.WithUsernameTrait(cfg.KratosUserTrait))
		} else {
			fetcher = gateway.NewWhoamiGateway(cfg.UserServiceURL, cfg.PrimaryDomain, client)
		}

		users := usecase.NewResolveUser(marker.Static(marker.FromCookieList(cookies)), identityCache, fetcher, logger,
			usecase.WithCacheKey(sessionCacheKey(cfg.CacheKey, key)),
			usecase.WithCacheTTL(cfg.CacheTTL),
			usecase.WithPrimaryDomain(cfg.PrimaryDomain),
			usecase.WithRecorder(metrics.Recorder{}),
		)
		favorites := usecase.NewFetchFavorites(users, favoritesCache,
			gateway.NewFavoritesGateway(cfg.FavoritesURL, client), logger,
			usecase.WithCacheKey(sessionCacheKey(cfg.FavoritesCacheKey, key)),
			usecase.WithCacheTTL(cfg.CacheTTL),
			usecase.WithRecorder(metrics.Recorder{}),
		)

		return &usecase.Session{Users: users, Favorites: favorites}
	}
}

// forwardedCookies names the cookies besides the session pair that each
// session's fetcher needs.
func forwardedCookies(cfg *config.Config) []string {
	if cfg.IdentityBackend == config.BackendKratos {
		return []string{cfg.KratosCookie}
	}
	return nil
}

// sessionClient returns a client sending cookies to the given endpoints.
func sessionClient(base *http.Client, cookies []*http.Cookie, logger *slog.Logger, endpoints ...string) *http.Client {
	if len(cookies) == 0 {
		return base
	}
	jar, err := gateway.NewSessionJar(cookies, endpoints...)
	if err != nil {
		logger.Error("failed to create cookie jar", "error", err)
		return base
	}
	return gateway.WithJar(base, jar)
}

// sessionCacheKey scopes a cache key to one session in a shared store.
func sessionCacheKey(base, sessionKey string) string {
	if sessionKey == "" {
		return base
	}
	return base + ":" + sessionKey
}
