package cli

import (
	"fmt"
	"log/slog"
	"net/url"

	"user-hub/internal/adapter/gateway"
	"user-hub/internal/adapter/marker"
	"user-hub/internal/cli/config"
	"user-hub/internal/cli/output"
	"user-hub/internal/domain"
	infracache "user-hub/internal/infrastructure/cache"
	"user-hub/internal/usecase"
)

// session is the usecase graph for one command invocation.
type session struct {
	*usecase.Session
	close func() error
}

// newSession wires the configured cookies, endpoints and cache into the
// resolver usecases.
func newSession(c *config.Config, l *slog.Logger) (*session, error) {
	whoamiURL, err := url.Parse(c.Endpoints.Whoami)
	if err != nil {
		return nil, fmt.Errorf("parsing whoami endpoint: %w", err)
	}

	cookies := c.Session.Cookies()
	jar, err := gateway.NewSessionJar(cookies, c.Endpoints.Whoami, c.Endpoints.Favorites)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	client := gateway.NewHTTPClient(c.Timeout, jar)

	store, closeStore, err := newStore(c)
	if err != nil {
		return nil, err
	}

	userKey := usecase.DefaultUserCacheKey
	favoritesKey := usecase.DefaultFavoritesCacheKey
	if c.Cache.RedisURL != "" {
		// A shared store may hold other sessions' entries.
		sessionKey := marker.KeyFor(c.Session.User, c.Session.Sig)
		userKey += ":" + sessionKey
		favoritesKey += ":" + sessionKey
	}

	users := usecase.NewResolveUser(
		marker.NewJarReader(jar, whoamiURL),
		infracache.NewJSONCache[domain.RawIdentity](store, l),
		gateway.NewWhoamiGateway(c.Endpoints.Whoami, c.PrimaryDomain, client),
		l,
		usecase.WithCacheKey(userKey),
		usecase.WithCacheTTL(c.Cache.TTL),
		usecase.WithPrimaryDomain(c.PrimaryDomain),
	)
	favorites := usecase.NewFetchFavorites(
		users,
		infracache.NewJSONCache[domain.CachedFavorites](store, l),
		gateway.NewFavoritesGateway(c.Endpoints.Favorites, client),
		l,
		usecase.WithCacheKey(favoritesKey),
		usecase.WithCacheTTL(c.Cache.TTL),
	)

	return &session{
		Session: &usecase.Session{Users: users, Favorites: favorites},
		close:   closeStore,
	}, nil
}

// warnIncompleteSession warns when the lookup will resolve as signed out
// without contacting the server.
func warnIncompleteSession(printer *output.Printer, c *config.Config) {
	if !c.Session.Complete() {
		printer.Warning("session.user and session.sig are not both set; resolving as signed out")
	}
}

func newStore(c *config.Config) (infracache.Store, func() error, error) {
	if c.Cache.RedisURL != "" {
		redisCache, err := infracache.NewRedisCacheWithURL(c.Cache.RedisURL, infracache.DefaultRedisPrefix, c.Cache.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("creating redis cache: %w", err)
		}
		return redisCache, redisCache.Close, nil
	}

	mem := infracache.NewMemoryCache(c.Cache.TTL)
	return mem, mem.Close, nil
}
