// Package fetcher loads page schemas for rendering. It prefers the shared
// cache, then the schema store, and answers store failures from the
// last-known-good copy or a built-in default so a page is never blank.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"
)

// Source names where a fetched schema came from.
type Source string

const (
	SourceStore   Source = "store"
	SourceCache   Source = "cache"
	SourceStale   Source = "stale"
	SourceDefault Source = "default"
)

// Fallback reasons, used as the metric label.
const (
	ReasonTimeout     = "timeout"
	ReasonBreakerOpen = "breaker_open"
	ReasonMalformed   = "malformed"
	ReasonStoreError  = "store_error"
)

const (
	defaultTimeout      = 2 * time.Second
	defaultCacheTimeout = 200 * time.Millisecond
)

// SchemaStore is the authoritative schema storage.
type SchemaStore interface {
	Lookup(ctx context.Context, ref domain.PageRef, fallbackLanguage string) (domain.StoredSchema, error)
}

// SchemaCache is the shared cache in front of the store.
type SchemaCache interface {
	Get(ctx context.Context, ref domain.PageRef) (domain.PageSchema, bool, error)
	Set(ctx context.Context, ref domain.PageRef, schema domain.PageSchema) error
	InvalidatePage(ctx context.Context, tenantID *uuid.UUID, slug string) (int, error)
	InvalidateAll(ctx context.Context) (int, error)
}

// StaleStore keeps the last good copy of each page.
type StaleStore interface {
	Put(ref domain.PageRef, schema domain.PageSchema)
	Get(ref domain.PageRef) (domain.PageSchema, bool)
}

// Defaults provides built-in schemas. Fallback must always return one.
type Defaults interface {
	Get(ref domain.PageRef) (domain.PageSchema, bool)
	Fallback(ref domain.PageRef) domain.PageSchema
}

// Recorder receives fetch metrics.
type Recorder interface {
	RecordFetch(source string)
	RecordFallback(reason string)
}

// Result is a fetched schema and where it came from. Problems lists the
// defects dropped while decoding a stored document.
type Result struct {
	Schema   domain.PageSchema
	Source   Source
	Problems []domain.Problem
}

// Config wires a Fetcher. Cache, Recorder and Tracer are optional.
// Timeout bounds the store load; CacheTimeout bounds each cache read and
// write-back separately, so an unreachable cache cannot spend the store's
// budget.
type Config struct {
	Store           SchemaStore
	Cache           SchemaCache
	Stale           StaleStore
	Defaults        Defaults
	Breaker         *circuitbreaker.Breaker
	Recorder        Recorder
	Tracer          trace.Tracer
	Timeout         time.Duration
	CacheTimeout    time.Duration
	DefaultLanguage string
	Logger          logger.Logger
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	store       SchemaStore
	cache       SchemaCache
	stale       StaleStore
	defaults    Defaults
	breaker     *circuitbreaker.Breaker
	recorder    Recorder
	tracer       trace.Tracer
	timeout      time.Duration
	cacheTimeout time.Duration
	defaultLang  string
	log          logger.Logger
	group        singleflight.Group
}

// New creates a Fetcher. Store, Stale and Defaults are required.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Store == nil || cfg.Stale == nil || cfg.Defaults == nil {
		return nil, errors.New("fetcher: store, stale and defaults are required")
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.New(circuitbreaker.Config{})
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTimeout <= 0 {
		cfg.CacheTimeout = defaultCacheTimeout
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("fetcher")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	return &Fetcher{
		store:        cfg.Store,
		cache:        cfg.Cache,
		stale:        cfg.Stale,
		defaults:     cfg.Defaults,
		breaker:      cfg.Breaker,
		recorder:     cfg.Recorder,
		tracer:       cfg.Tracer,
		timeout:      cfg.Timeout,
		cacheTimeout: cfg.CacheTimeout,
		defaultLang:  cfg.DefaultLanguage,
		log:          cfg.Logger,
	}, nil
}

type loaded struct {
	schema   domain.PageSchema
	problems []domain.Problem
	notFound bool
}

// Fetch returns the schema for slug as seen by tenantID (nil for the master
// page) in language. Store failures are answered from a fallback and never
// returned. The errors are domain.ErrEmptySlug, domain.ErrPageNotFound when
// the page exists nowhere, and ctx's error when the caller gave up.
func (f *Fetcher) Fetch(ctx context.Context, tenantID *uuid.UUID, slug, language string) (Result, error) {
	if slug == "" {
		return Result{}, domain.ErrEmptySlug
	}
	if language == "" {
		language = f.defaultLang
	}
	ref := domain.PageRef{TenantID: tenantID, Slug: slug, Language: language}

	ctx, span := f.tracer.Start(ctx, "fetcher.Fetch", trace.WithAttributes(
		attribute.String("page.ref", ref.String()),
	))
	defer span.End()

	if schema, ok := f.fromCache(ctx, ref); ok {
		return f.answer(span, Result{Schema: schema, Source: SourceCache}), nil
	}

	// The store budget starts once the cache has answered or given up.
	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ch := f.group.DoChan(ref.String(), func() (any, error) {
		// Shared by every waiter, so it must outlive any single caller.
		loadCtx, loadCancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer loadCancel()
		return f.load(loadCtx, ref)
	})

	var (
		res loaded
		err error
	)
	select {
	case <-waitCtx.Done():
		err = waitCtx.Err()
	case r := <-ch:
		err = r.Err
		if err == nil {
			res, _ = r.Val.(loaded)
		}
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Result{}, ctx.Err()
		}
		return f.answer(span, f.fallback(ref, err)), nil
	}
	if res.notFound {
		span.SetAttributes(attribute.Bool("page.not_found", true))
		return Result{}, domain.ErrPageNotFound
	}

	f.stale.Put(ref, res.schema)
	f.writeBack(ctx, ref, res.schema)

	return f.answer(span, Result{Schema: res.schema, Source: SourceStore, Problems: res.problems}), nil
}

func (f *Fetcher) fromCache(ctx context.Context, ref domain.PageRef) (domain.PageSchema, bool) {
	if f.cache == nil {
		return domain.PageSchema{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, f.cacheTimeout)
	defer cancel()

	schema, ok, err := f.cache.Get(ctx, ref)
	if err != nil {
		f.log.Warn("Schema cache read failed",
			logger.Stringer("page", ref),
			logger.Error(err),
		)
		return domain.PageSchema{}, false
	}
	return schema, ok
}

// writeBack is best effort: a failed or slow write is logged and the
// freshly loaded schema is still returned.
func (f *Fetcher) writeBack(ctx context.Context, ref domain.PageRef, schema domain.PageSchema) {
	if f.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.cacheTimeout)
	defer cancel()

	if err := f.cache.Set(ctx, ref, schema); err != nil {
		f.log.Warn("Failed to cache page schema",
			logger.Stringer("page", ref),
			logger.Error(err),
		)
	}
}

// load makes one store attempt through the breaker. A missing page is an
// answer, not a store failure, so it does not count against the breaker.
func (f *Fetcher) load(ctx context.Context, ref domain.PageRef) (loaded, error) {
	var stored domain.StoredSchema
	notFound := false

	err := f.breaker.Execute(ctx, func() error {
		var lookupErr error
		stored, lookupErr = f.store.Lookup(ctx, ref, f.defaultLang)
		if errors.Is(lookupErr, domain.ErrPageNotFound) {
			notFound = true
			return nil
		}
		return lookupErr
	})
	if err != nil {
		return loaded{}, err
	}
	if notFound {
		return loaded{notFound: true}, nil
	}

	components, problems, err := domain.DecodeDocument(stored.Document)
	if err != nil {
		return loaded{}, fmt.Errorf("decode %s: %w", stored.Ref, err)
	}
	for _, p := range problems {
		f.log.Warn("Schema problem",
			logger.Stringer("page", stored.Ref),
			logger.String("path", p.Path),
			logger.String("reason", p.Reason),
		)
	}

	return loaded{
		schema: domain.PageSchema{
			TenantID:   stored.Ref.TenantID,
			Slug:       stored.Ref.Slug,
			Language:   stored.Ref.Language,
			Components: components,
		},
		problems: problems,
	}, nil
}

func (f *Fetcher) fallback(ref domain.PageRef, cause error) Result {
	reason := classify(cause)
	f.log.Warn("Schema fetch failed, serving fallback",
		logger.Stringer("page", ref),
		logger.String("reason", reason),
		logger.Error(cause),
	)
	if f.recorder != nil {
		f.recorder.RecordFallback(reason)
	}

	if schema, ok := f.stale.Get(ref); ok {
		return Result{Schema: schema, Source: SourceStale}
	}
	if schema, ok := f.defaults.Get(ref); ok {
		return Result{Schema: schema, Source: SourceDefault}
	}
	return Result{Schema: f.defaults.Fallback(ref), Source: SourceDefault}
}

func (f *Fetcher) answer(span trace.Span, res Result) Result {
	span.SetAttributes(attribute.String("page.source", string(res.Source)))
	if f.recorder != nil {
		f.recorder.RecordFetch(string(res.Source))
	}
	return res
}

func classify(err error) string {
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return ReasonBreakerOpen
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, domain.ErrMalformedSchema):
		return ReasonMalformed
	default:
		return ReasonStoreError
	}
}

// Invalidate drops every cached language of slug for tenantID. Invalidating
// a master page (nil tenantID) drops it for every tenant. Last-known-good
// copies are kept; they are only served while the store is failing.
func (f *Fetcher) Invalidate(ctx context.Context, tenantID *uuid.UUID, slug string) (int, error) {
	if slug == "" {
		return 0, domain.ErrEmptySlug
	}
	if f.cache == nil {
		return 0, nil
	}
	removed, err := f.cache.InvalidatePage(ctx, tenantID, slug)
	if err != nil {
		return removed, fmt.Errorf("invalidate %s: %w", slug, err)
	}
	return removed, nil
}

// InvalidateAll drops every cached schema, e.g. after a bulk import.
func (f *Fetcher) InvalidateAll(ctx context.Context) (int, error) {
	if f.cache == nil {
		return 0, nil
	}
	removed, err := f.cache.InvalidateAll(ctx)
	if err != nil {
		return removed, fmt.Errorf("invalidate all: %w", err)
	}
	return removed, nil
}
