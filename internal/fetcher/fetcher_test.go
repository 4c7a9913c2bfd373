package fetcher_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/cache"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/defaults"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/fetcher"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenantA = uuid.MustParse("0b6d1c3a-4e0f-4f52-9d1e-6c1f2a9e7d10")

// mockStore is a SchemaStore backed by a function.
type mockStore struct {
	calls    atomic.Int32
	lookupFn func(ctx context.Context, ref domain.PageRef, fallbackLanguage string) (domain.StoredSchema, error)
}

func (m *mockStore) Lookup(ctx context.Context, ref domain.PageRef, fallbackLanguage string) (domain.StoredSchema, error) {
	m.calls.Add(1)
	return m.lookupFn(ctx, ref, fallbackLanguage)
}

type countingRecorder struct {
	mu        sync.Mutex
	fetches   map[string]int
	fallbacks map[string]int
}

func newRecorder() *countingRecorder {
	return &countingRecorder{fetches: map[string]int{}, fallbacks: map[string]int{}}
}

func (r *countingRecorder) RecordFetch(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches[source]++
}

func (r *countingRecorder) RecordFallback(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[reason]++
}

func storedDoc(ref domain.PageRef, doc string) domain.StoredSchema {
	return domain.StoredSchema{Ref: ref, Document: []byte(doc), UpdatedAt: time.Now()}
}

type harness struct {
	fetcher  *fetcher.Fetcher
	store    *mockStore
	stale    *cache.LastKnownGood
	recorder *countingRecorder
}

func newHarness(t *testing.T, store *mockStore, mutate func(*fetcher.Config)) harness {
	t.Helper()

	defs, err := defaults.New(logger.NewNop())
	require.NoError(t, err)

	stale := cache.NewLastKnownGood(16)
	rec := newRecorder()
	cfg := fetcher.Config{
		Store:           store,
		Stale:           stale,
		Defaults:        defs,
		Recorder:        rec,
		Timeout:         time.Second,
		DefaultLanguage: "en",
		Logger:          logger.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f, err := fetcher.New(cfg)
	require.NoError(t, err)
	return harness{fetcher: f, store: store, stale: stale, recorder: rec}
}

func TestFetch_FromStore(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, fallbackLanguage string) (domain.StoredSchema, error) {
		assert.Equal(t, "en", fallbackLanguage)
		return storedDoc(ref, `{"components":[{"key":"t","type":"HeroSection","content":"Welcome"},{"type":"Orphan"}]}`), nil
	}}
	h := newHarness(t, store, nil)

	res, err := h.fetcher.Fetch(context.Background(), &tenantA, "home", "")
	require.NoError(t, err)

	assert.Equal(t, fetcher.SourceStore, res.Source)
	assert.Equal(t, "en", res.Schema.Language)
	assert.Equal(t, &tenantA, res.Schema.TenantID)
	require.Len(t, res.Schema.Components, 1)
	assert.Equal(t, "Welcome", res.Schema.Components[0].Content)
	assert.Len(t, res.Problems, 1)
	assert.Equal(t, 1, h.stale.Len())
	assert.Equal(t, 1, h.recorder.fetches["store"])
}

func TestFetch_EmptySlug(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &mockStore{}, nil)
	_, err := h.fetcher.Fetch(context.Background(), nil, "", "en")
	assert.ErrorIs(t, err, domain.ErrEmptySlug)
	assert.Zero(t, h.store.calls.Load())
}

func TestFetch_NotFound(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(context.Context, domain.PageRef, string) (domain.StoredSchema, error) {
		return domain.StoredSchema{}, domain.ErrPageNotFound
	}}
	h := newHarness(t, store, nil)

	_, err := h.fetcher.Fetch(context.Background(), nil, "nowhere", "en")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)
	assert.Empty(t, h.recorder.fallbacks)
}

func TestFetch_StoreFailureFallbackChain(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		if fail.Load() {
			return domain.StoredSchema{}, sql.ErrConnDone
		}
		return storedDoc(ref, `{"components":[{"key":"hero","type":"HeroSection","content":"Fresh"}]}`), nil
	}}
	h := newHarness(t, store, nil)
	ctx := context.Background()

	_, err := h.fetcher.Fetch(ctx, nil, "home", "en")
	require.NoError(t, err)

	fail.Store(true)

	// A page loaded before the outage is served stale.
	res, err := h.fetcher.Fetch(ctx, nil, "home", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceStale, res.Source)
	assert.Equal(t, "Fresh", res.Schema.Components[0].Content)

	// A page with a built-in default gets the default.
	res, err = h.fetcher.Fetch(ctx, nil, "pricing", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceDefault, res.Source)
	assert.Equal(t, "pricing", res.Schema.Slug)
	assert.NotEmpty(t, res.Schema.Components)

	// Anything else gets the generic fallback page, shaped for the request.
	res, err = h.fetcher.Fetch(ctx, &tenantA, "about", "fr")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceDefault, res.Source)
	assert.Equal(t, "about", res.Schema.Slug)
	assert.Equal(t, "fr", res.Schema.Language)
	assert.Equal(t, &tenantA, res.Schema.TenantID)
	assert.NotEmpty(t, res.Schema.Components)

	assert.Equal(t, 3, h.recorder.fallbacks[fetcher.ReasonStoreError])
}

func TestFetch_MalformedDocumentFallsBack(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		return storedDoc(ref, `[1,2,3]`), nil
	}}
	h := newHarness(t, store, nil)

	res, err := h.fetcher.Fetch(context.Background(), nil, "home", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceDefault, res.Source)
	assert.Equal(t, 1, h.recorder.fallbacks[fetcher.ReasonMalformed])
}

func TestFetch_TimeoutFallsBack(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(ctx context.Context, _ domain.PageRef, _ string) (domain.StoredSchema, error) {
		<-ctx.Done()
		return domain.StoredSchema{}, ctx.Err()
	}}
	h := newHarness(t, store, func(c *fetcher.Config) { c.Timeout = 20 * time.Millisecond })

	start := time.Now()
	res, err := h.fetcher.Fetch(context.Background(), nil, "home", "en")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, fetcher.SourceDefault, res.Source)
	assert.Equal(t, "home", res.Schema.Slug)
}

func TestFetch_BreakerOpenSkipsStore(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(context.Context, domain.PageRef, string) (domain.StoredSchema, error) {
		return domain.StoredSchema{}, errors.New("connection refused")
	}}
	breaker := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Minute})
	h := newHarness(t, store, func(c *fetcher.Config) { c.Breaker = breaker })
	ctx := context.Background()

	for range 4 {
		res, err := h.fetcher.Fetch(ctx, nil, "home", "en")
		require.NoError(t, err)
		assert.Equal(t, fetcher.SourceDefault, res.Source)
	}

	assert.Equal(t, int32(2), h.store.calls.Load())
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
	assert.Equal(t, 2, h.recorder.fallbacks[fetcher.ReasonBreakerOpen])
}

func TestFetch_CallerCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	store := &mockStore{lookupFn: func(ctx context.Context, _ domain.PageRef, _ string) (domain.StoredSchema, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return domain.StoredSchema{}, errors.New("abandoned")
	}}
	h := newHarness(t, store, nil)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := h.fetcher.Fetch(ctx, nil, "home", "en")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_ConcurrentLoadsCollapse(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		<-gate
		return storedDoc(ref, `{"components":[]}`), nil
	}}
	h := newHarness(t, store, nil)

	const callers = 8
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.fetcher.Fetch(context.Background(), nil, "home", "en")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Less(t, h.store.calls.Load(), int32(callers))
}

func TestFetch_SharedMasterPage(t *testing.T) {
	t.Parallel()

	tenantB := uuid.MustParse("9a0e4b7c-2f1d-4c3a-8b6e-1d2c3b4a5f60")
	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		// Neither tenant has its own header; both resolve to the master page.
		return storedDoc(domain.PageRef{Slug: ref.Slug, Language: ref.Language}, `{"components":[{"key":"h","type":"Header","content":"Acme Network"}]}`), nil
	}}
	h := newHarness(t, store, nil)
	ctx := context.Background()

	a, err := h.fetcher.Fetch(ctx, &tenantA, "header", "en")
	require.NoError(t, err)
	b, err := h.fetcher.Fetch(ctx, &tenantB, "header", "en")
	require.NoError(t, err)

	assert.Nil(t, a.Schema.TenantID)
	assert.Equal(t, a.Schema, b.Schema)
}

func TestFetch_CacheHitAndInvalidate(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisCache := cache.NewRedisCache(client, "site-renderer", time.Minute)

	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		return storedDoc(ref, `{"components":[{"key":"hero","type":"HeroSection","content":"Hi"}]}`), nil
	}}
	h := newHarness(t, store, func(c *fetcher.Config) { c.Cache = redisCache })
	ctx := context.Background()

	first, err := h.fetcher.Fetch(ctx, &tenantA, "home", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceStore, first.Source)

	second, err := h.fetcher.Fetch(ctx, &tenantA, "home", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceCache, second.Source)
	assert.Equal(t, first.Schema, second.Schema)
	assert.Equal(t, int32(1), h.store.calls.Load())

	removed, err := h.fetcher.Invalidate(ctx, &tenantA, "home")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	third, err := h.fetcher.Fetch(ctx, &tenantA, "home", "en")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceStore, third.Source)
}

func TestFetch_CacheOutageStillServesStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisCache := cache.NewRedisCache(client, "site-renderer", time.Minute)
	mr.Close()

	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		return storedDoc(ref, `{"components":[]}`), nil
	}}
	h := newHarness(t, store, func(c *fetcher.Config) {
		c.Cache = redisCache
		c.CacheTimeout = 100 * time.Millisecond
	})

	start := time.Now()
	res, err := h.fetcher.Fetch(context.Background(), nil, "pricing", "en")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceStore, res.Source)
	assert.Equal(t, int32(1), h.store.calls.Load())
	assert.Empty(t, h.recorder.fallbacks)
	assert.Less(t, elapsed, time.Second, "cache outage must not spend the store budget")
}

// stallingCache blocks every call until its context ends.
type stallingCache struct{}

func (stallingCache) Get(ctx context.Context, _ domain.PageRef) (domain.PageSchema, bool, error) {
	<-ctx.Done()
	return domain.PageSchema{}, false, ctx.Err()
}

func (stallingCache) Set(ctx context.Context, _ domain.PageRef, _ domain.PageSchema) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stallingCache) InvalidatePage(context.Context, *uuid.UUID, string) (int, error) { return 0, nil }

func (stallingCache) InvalidateAll(context.Context) (int, error) { return 0, nil }

func TestFetch_StalledCacheIsBoundedSeparately(t *testing.T) {
	t.Parallel()

	store := &mockStore{lookupFn: func(_ context.Context, ref domain.PageRef, _ string) (domain.StoredSchema, error) {
		return storedDoc(ref, `{"components":[{"key":"t","type":"HeroSection","content":"Hi"}]}`), nil
	}}
	h := newHarness(t, store, func(c *fetcher.Config) {
		c.Cache = stallingCache{}
		c.CacheTimeout = 50 * time.Millisecond
		c.Timeout = 500 * time.Millisecond
	})

	start := time.Now()
	res, err := h.fetcher.Fetch(context.Background(), &tenantA, "home", "en")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceStore, res.Source)
	assert.Empty(t, h.recorder.fallbacks)
	// One bounded read plus one bounded write-back, well inside a full store budget.
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestInvalidate_WithoutCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &mockStore{}, nil)
	removed, err := h.fetcher.Invalidate(context.Background(), nil, "home")
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = h.fetcher.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
