package usecase

import (
	"context"
	"log/slog"
	"time"

	"user-hub/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultUserCacheKey is the cache key used when none is configured.
const DefaultUserCacheKey = "loggedInUserInfo"

var tracer = otel.Tracer("user-hub/usecase")

// Option configures a ResolveUser or FetchFavorites usecase.
type Option func(*options)

type options struct {
	cacheKey      string
	cacheTTL      time.Duration
	primaryDomain string
	recorder      domain.ResolutionRecorder
}

// WithCacheKey overrides the cache key.
func WithCacheKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.cacheKey = key
		}
	}
}

// WithCacheTTL sets the TTL passed to the cache. Zero keeps the cache's own
// default.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// WithPrimaryDomain sets the domain used to flag primary-domain users.
func WithPrimaryDomain(d string) Option {
	return func(o *options) {
		if d != "" {
			o.primaryDomain = d
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r domain.ResolutionRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func buildOptions(defaultKey string, opts []Option) options {
	o := options{
		cacheKey:      defaultKey,
		primaryDomain: domain.DefaultPrimaryDomain,
		recorder:      domain.NopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ResolveUser resolves the current user: session marker, then cache, then a
// single coalesced whoami fetch with write-through.
type ResolveUser struct {
	marker  domain.MarkerReader
	cache   domain.IdentityCache
	fetcher domain.IdentityFetcher
	logger  *slog.Logger
	opts    options
	flight  Coalescer[domain.Result]
}

// NewResolveUser creates a new ResolveUser usecase. cache may be nil, which
// disables caching.
func NewResolveUser(m domain.MarkerReader, c domain.IdentityCache, f domain.IdentityFetcher, l *slog.Logger, opts ...Option) *ResolveUser {
	if l == nil {
		l = slog.Default()
	}
	return &ResolveUser{
		marker:  m,
		cache:   c,
		fetcher: f,
		logger:  l,
		opts:    buildOptions(DefaultUserCacheKey, opts),
	}
}

// Execute resolves the current user. Failures are returned in the Result and
// never retried.
func (uc *ResolveUser) Execute(ctx context.Context) domain.Result {
	ctx, span := tracer.Start(ctx, "ResolveUser.Execute")
	defer span.End()

	result, source := uc.resolve(ctx)

	uc.opts.recorder.RecordResolution(domain.ServiceUser, source, result.Err)
	span.SetAttributes(attribute.String("resolution.source", source))
	annotateSpan(span, result.Err)
	return result
}

func (uc *ResolveUser) resolve(ctx context.Context) (domain.Result, string) {
	marker := uc.marker.Read(ctx)
	if !marker.Present {
		return domain.Failure(domain.NewNotLoggedIn("session cookies not present", nil)), domain.SourceMarker
	}

	if identity, ok := uc.cachedIdentity(ctx, marker); ok {
		return domain.Success(identity), domain.SourceCache
	}

	result, shared := uc.flight.Do(ctx, uc.fetchAndStore)
	if shared {
		return result, domain.SourceCoalesced
	}
	return result, domain.SourceNetwork
}

// cachedIdentity returns the cached identity if it belongs to the marker's
// user. A mismatched entry is left in place; the next fetch overwrites it.
func (uc *ResolveUser) cachedIdentity(ctx context.Context, marker domain.SessionMarker) (*domain.Identity, bool) {
	if uc.cache == nil {
		return nil, false
	}

	raw, found := uc.cache.Get(ctx, uc.opts.cacheKey)
	if !found {
		return nil, false
	}

	if !domain.UsernameMatches(raw.Username, marker.UsernameHint) {
		uc.logger.DebugContext(ctx, "cached identity does not match session, bypassing",
			"cache_key", uc.opts.cacheKey)
		return nil, false
	}

	return domain.NewIdentity(*raw, uc.opts.primaryDomain), true
}

func (uc *ResolveUser) fetchAndStore(ctx context.Context) domain.Result {
	start := time.Now()
	fetched, err := uc.fetcher.Fetch(ctx)
	rerr := domain.AsResolutionError(err)
	if rerr == nil && fetched == nil {
		rerr = domain.NewDecodingError("empty whoami response", nil)
	}
	uc.opts.recorder.RecordFetch(domain.ServiceUser, time.Since(start), rerr)

	if rerr != nil {
		logResolutionError(ctx, uc.logger, "whoami fetch failed", rerr)
		return domain.Failure(rerr)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, uc.opts.cacheKey, fetched.Raw, uc.opts.cacheTTL); err != nil {
			uc.logger.WarnContext(ctx, "failed to cache identity",
				"cache_key", uc.opts.cacheKey,
				"error", err)
		}
	}

	return domain.Success(fetched.Identity)
}

// logResolutionError logs NotLoggedIn quietly; it is an expected outcome.
func logResolutionError(ctx context.Context, l *slog.Logger, msg string, err *domain.ResolutionError) {
	if err.Kind == domain.KindNotLoggedIn {
		l.DebugContext(ctx, msg, "kind", err.Name(), "message", err.Message)
		return
	}
	l.WarnContext(ctx, msg, "kind", err.Name(), "message", err.Message)
}

// annotateSpan records the error kind on span.
func annotateSpan(span trace.Span, err *domain.ResolutionError) {
	if err != nil {
		span.SetAttributes(attribute.String("resolution.error", err.Name()))
	}
}
