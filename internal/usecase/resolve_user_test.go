package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"user-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticMarker implements domain.MarkerReader for testing.
type staticMarker struct {
	marker domain.SessionMarker
	reads  atomic.Int32
}

func (m *staticMarker) Read(context.Context) domain.SessionMarker {
	m.reads.Add(1)
	return m.marker
}

// present returns a marker for a logged-in-user cookie holding cookieValue.
func present(cookieValue string) *staticMarker {
	return &staticMarker{marker: domain.SessionMarker{Present: true, UsernameHint: domain.DecodeUsername(cookieValue)}}
}

// mockFetcher implements domain.IdentityFetcher for testing. When release is
// non-nil every call blocks until it is closed.
type mockFetcher struct {
	fetched *domain.Fetched
	err     error
	release chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context) (*domain.Fetched, error) {
	m.calls.Add(1)
	if m.started != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
	}
	if m.release != nil {
		<-m.release
	}
	return m.fetched, m.err
}

// mockCache implements domain.IdentityCache for testing.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]domain.RawIdentity
	ttls    map[string]time.Duration
	gets    int
	setErr  error
}

func newMockCache() *mockCache {
	return &mockCache{
		entries: make(map[string]domain.RawIdentity),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockCache) Get(_ context.Context, key string) (*domain.RawIdentity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	entry, found := m.entries[key]
	if !found {
		return nil, false
	}
	return &entry, true
}

func (m *mockCache) Set(_ context.Context, key string, raw domain.RawIdentity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func fooRaw() domain.RawIdentity {
	return domain.RawIdentity{
		Username:   "foo@bar.com",
		ItemName:   "@fooey",
		ScreenName: "Foo-Bar",
		Privs:      []string{"/"},
	}
}

func fetchedFor(raw domain.RawIdentity) *domain.Fetched {
	return &domain.Fetched{Identity: domain.NewIdentity(raw, ""), Raw: raw}
}

func TestResolveUser_MarkerAbsent(t *testing.T) {
	marker := &staticMarker{}
	cache := newMockCache()
	fetcher := &mockFetcher{fetched: fetchedFor(fooRaw())}

	uc := NewResolveUser(marker, cache, fetcher, slog.Default())
	result := uc.Execute(context.Background())

	require.NotNil(t, result.Err)
	assert.Nil(t, result.Identity)
	assert.Equal(t, domain.KindNotLoggedIn, result.Err.Kind)
	assert.Equal(t, int32(0), fetcher.calls.Load(), "must not fetch without a session")
	assert.Equal(t, 0, cache.gets, "must not touch the cache without a session")
}

func TestResolveUser_CacheMissFetchesAndWritesThrough(t *testing.T) {
	cache := newMockCache()
	fetcher := &mockFetcher{fetched: fetchedFor(fooRaw())}

	uc := NewResolveUser(present("foo%40bar.com"), cache, fetcher, slog.Default())
	result := uc.Execute(context.Background())

	require.True(t, result.OK())
	assert.Equal(t, "foo@bar.com", result.Identity.Username)
	assert.Equal(t, "fooey", result.Identity.UserKey)
	assert.Equal(t, "Foo-Bar", result.Identity.ScreenName)
	assert.Equal(t, []string{"/"}, result.Identity.Privileges)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	cached, found := cache.Get(context.Background(), DefaultUserCacheKey)
	require.True(t, found)
	assert.Equal(t, fooRaw(), *cached)
}

func TestResolveUser_CacheHit(t *testing.T) {
	cache := newMockCache()
	require.NoError(t, cache.Set(context.Background(), DefaultUserCacheKey, fooRaw(), 0))
	fetcher := &mockFetcher{}

	uc := NewResolveUser(present("foo%40bar.com"), cache, fetcher, slog.Default())

	first := uc.Execute(context.Background())
	for range 5 {
		again := uc.Execute(context.Background())
		require.True(t, again.OK())
		assert.Equal(t, first.Identity, again.Identity)
	}

	require.True(t, first.OK())
	assert.Equal(t, "fooey", first.Identity.UserKey)
	assert.Equal(t, int32(0), fetcher.calls.Load(), "should not fetch on cache hit")
}

func TestResolveUser_CacheMismatchRefetchesAndOverwrites(t *testing.T) {
	cache := newMockCache()
	require.NoError(t, cache.Set(context.Background(), DefaultUserCacheKey, fooRaw(), 0))

	userB := domain.RawIdentity{Username: "baz@bar.com", ItemName: "@baz", ScreenName: "Baz"}
	fetcher := &mockFetcher{fetched: fetchedFor(userB)}

	uc := NewResolveUser(present("baz%40bar.com"), cache, fetcher, slog.Default())
	result := uc.Execute(context.Background())

	require.True(t, result.OK())
	assert.Equal(t, "baz@bar.com", result.Identity.Username)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	cached, _ := cache.Get(context.Background(), DefaultUserCacheKey)
	assert.Equal(t, "baz@bar.com", cached.Username)

	// The overwritten entry now serves user B without another fetch.
	again := uc.Execute(context.Background())
	require.True(t, again.OK())
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestResolveUser_MismatchWithFailedFetchKeepsEntry(t *testing.T) {
	cache := newMockCache()
	require.NoError(t, cache.Set(context.Background(), DefaultUserCacheKey, fooRaw(), 0))
	fetcher := &mockFetcher{err: domain.NewNetworkError("oh dear")}

	uc := NewResolveUser(present("baz%40bar.com"), cache, fetcher, slog.Default())
	result := uc.Execute(context.Background())

	require.NotNil(t, result.Err)
	assert.Equal(t, domain.KindNetwork, result.Err.Kind)

	cached, found := cache.Get(context.Background(), DefaultUserCacheKey)
	require.True(t, found, "a stale entry is bypassed, not deleted")
	assert.Equal(t, "foo@bar.com", cached.Username)
}

func TestResolveUser_FetchErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    domain.ErrorKind
		message string
	}{
		{"not logged in", domain.NewNotLoggedIn("Authentication failed", "Authentication failed"), domain.KindNotLoggedIn, "Authentication failed"},
		{"network", domain.NewNetworkError("oh dear"), domain.KindNetwork, "oh dear"},
		{"decoding", domain.NewDecodingError("invalid character 'b'", nil), domain.KindDecoding, "invalid character 'b'"},
		{"unclassified", errors.New("boom"), domain.KindNetwork, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMockCache()
			uc := NewResolveUser(present("foo"), cache, &mockFetcher{err: tt.err}, slog.Default())

			result := uc.Execute(context.Background())

			require.NotNil(t, result.Err)
			assert.Nil(t, result.Identity)
			assert.Equal(t, tt.kind, result.Err.Kind)
			assert.Equal(t, tt.message, result.Err.Message)
			assert.Empty(t, cache.entries, "failures are not cached")
		})
	}
}

func TestResolveUser_NilFetchedIsDecodingError(t *testing.T) {
	uc := NewResolveUser(present("foo"), nil, &mockFetcher{}, slog.Default())

	result := uc.Execute(context.Background())

	require.NotNil(t, result.Err)
	assert.Equal(t, domain.KindDecoding, result.Err.Kind)
}

func TestResolveUser_CacheWriteFailureStillSucceeds(t *testing.T) {
	cache := newMockCache()
	cache.setErr = errors.New("cache down")
	uc := NewResolveUser(present("foo%40bar.com"), cache, &mockFetcher{fetched: fetchedFor(fooRaw())}, slog.Default())

	result := uc.Execute(context.Background())

	assert.True(t, result.OK())
}

func TestResolveUser_NoCacheAlwaysFetches(t *testing.T) {
	fetcher := &mockFetcher{fetched: fetchedFor(fooRaw())}
	uc := NewResolveUser(present("foo%40bar.com"), nil, fetcher, slog.Default())

	uc.Execute(context.Background())
	uc.Execute(context.Background())

	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestResolveUser_CustomKeyAndTTL(t *testing.T) {
	cache := newMockCache()
	uc := NewResolveUser(present("foo%40bar.com"), cache, &mockFetcher{fetched: fetchedFor(fooRaw())}, slog.Default(),
		WithCacheKey("foo-cache"),
		WithCacheTTL(30*time.Second),
	)

	uc.Execute(context.Background())

	_, found := cache.entries["foo-cache"]
	assert.True(t, found)
	assert.Equal(t, 30*time.Second, cache.ttls["foo-cache"])
}

func TestResolveUser_PrimaryDomainOnCacheHit(t *testing.T) {
	cache := newMockCache()
	staff := domain.RawIdentity{Username: "foo@example.com", ItemName: "@foo"}
	require.NoError(t, cache.Set(context.Background(), DefaultUserCacheKey, staff, 0))

	uc := NewResolveUser(present("foo%40example.com"), cache, &mockFetcher{}, slog.Default(),
		WithPrimaryDomain("example.com"))
	result := uc.Execute(context.Background())

	require.True(t, result.OK())
	assert.True(t, result.Identity.IsPrimaryDomainUser)
}

// runConcurrently starts n resolutions while the fetcher is held, waits for
// all of them to reach the coalescer, then releases the fetch.
func runConcurrently(t *testing.T, uc *ResolveUser, marker *staticMarker, fetcher *mockFetcher, n int) []domain.Result {
	t.Helper()

	results := make([]domain.Result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = uc.Execute(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return marker.reads.Load() == int32(n)
	}, time.Second, time.Millisecond)
	<-fetcher.started
	// Give the remaining callers time to attach to the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	return results
}

func TestResolveUser_ConcurrentCallsShareOneFetch(t *testing.T) {
	marker := present("foo%40bar.com")
	fetcher := &mockFetcher{
		fetched: fetchedFor(fooRaw()),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	uc := NewResolveUser(marker, newMockCache(), fetcher, slog.Default())

	results := runConcurrently(t, uc, marker, fetcher, 4)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, r := range results {
		require.True(t, r.OK())
		assert.Same(t, results[0].Identity, r.Identity)
		assert.Equal(t, "Foo-Bar", r.Identity.ScreenName)
	}
}

func TestResolveUser_ConcurrentCallsShareOneError(t *testing.T) {
	marker := present("foo%40bar.com")
	fetcher := &mockFetcher{
		err:     domain.NewNetworkError("oh dear"),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	uc := NewResolveUser(marker, nil, fetcher, slog.Default())

	results := runConcurrently(t, uc, marker, fetcher, 4)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, r := range results {
		require.NotNil(t, r.Err)
		assert.Same(t, results[0].Err, r.Err)
	}
}

func TestResolveUser_NewRequestAfterCompletionFetchesAgain(t *testing.T) {
	marker := present("foo%40bar.com")
	fetcher := &mockFetcher{
		fetched: fetchedFor(fooRaw()),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	// No cache, so every completed flight is followed by a fresh fetch.
	uc := NewResolveUser(marker, nil, fetcher, slog.Default())

	runConcurrently(t, uc, marker, fetcher, 4)
	require.Equal(t, int32(1), fetcher.calls.Load())

	uc.Execute(context.Background())
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestResolveUser_CallerCancellationDoesNotAbortFetch(t *testing.T) {
	fetcher := &mockFetcher{fetched: fetchedFor(fooRaw())}
	var seen context.Context
	recording := fetcherFunc(func(ctx context.Context) (*domain.Fetched, error) {
		seen = ctx
		return fetcher.Fetch(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewResolveUser(present("foo%40bar.com"), nil, recording, slog.Default())
	result := uc.Execute(ctx)

	require.True(t, result.OK())
	require.NotNil(t, seen)
	assert.NoError(t, seen.Err())
}

func TestResolveUser_RecordsSources(t *testing.T) {
	rec := &recordingRecorder{}
	cache := newMockCache()
	uc := NewResolveUser(present("foo%40bar.com"), cache, &mockFetcher{fetched: fetchedFor(fooRaw())}, slog.Default(),
		WithRecorder(rec))

	uc.Execute(context.Background())
	uc.Execute(context.Background())

	assert.Equal(t, []string{domain.SourceNetwork, domain.SourceCache}, rec.sources)
	assert.Equal(t, 1, rec.fetches)
}

type fetcherFunc func(ctx context.Context) (*domain.Fetched, error)

func (f fetcherFunc) Fetch(ctx context.Context) (*domain.Fetched, error) { return f(ctx) }

type recordingRecorder struct {
	mu      sync.Mutex
	sources []string
	fetches int
}

func (r *recordingRecorder) RecordResolution(_, source string, _ *domain.ResolutionError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recordingRecorder) RecordFetch(string, time.Duration, *domain.ResolutionError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
}
