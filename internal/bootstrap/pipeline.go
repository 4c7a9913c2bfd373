package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/cache"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/defaults"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/events"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/repository"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/telemetry"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/tenants"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
	"github.com/redis/go-redis/v9"
)

// lastKnownGoodPages bounds the in-process stale copies kept for outages.
const lastKnownGoodPages = 512

// Pipeline holds the wired fetch-select-render components.
type Pipeline struct {
	Schemas  *repository.SchemaRepository
	Defaults *defaults.Store
	Registry *theme.Registry
	Tenants  *tenants.CachedDirectory
	Selector *theme.Selector
	Fetcher  *fetcher.Fetcher
	Renderer *render.Renderer
}

// SetupPipeline wires the schema store, caches, defaults, themes and renderer.
// redisClient may be nil.
func SetupPipeline(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	provider *telemetry.Provider,
	log infralogger.Logger,
) (*Pipeline, error) {
	schemas := repository.NewSchemaRepository(db)

	defaultSchemas, err := defaults.New(log)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	registry, err := theme.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("themes: %w", err)
	}

	directory := tenants.NewCachedDirectory(tenantDirectory(cfg, db), cfg.Tenants.CacheTTL, cfg.Tenants.Timeout)
	selector, err := theme.NewSelector(registry, directory, cfg.Themes.Default, cfg.Themes.Override, log)
	if err != nil {
		return nil, fmt.Errorf("themes: %w", err)
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Fetcher.BreakerFailures,
		Timeout:          cfg.Fetcher.BreakerTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Schema store circuit breaker changed state",
				infralogger.String("from", from.String()),
				infralogger.String("to", to.String()),
			)
		},
	})

	fetchCfg := fetcher.Config{
		Store:           schemas,
		Stale:           cache.NewLastKnownGood(lastKnownGoodPages),
		Defaults:        defaultSchemas,
		Breaker:         breaker,
		Recorder:        provider,
		Tracer:          provider.Tracer,
		Timeout:         cfg.Fetcher.Timeout,
		CacheTimeout:    cfg.Cache.Timeout,
		DefaultLanguage: cfg.Fetcher.DefaultLanguage,
		Logger:          log,
	}
	if redisClient != nil {
		fetchCfg.Cache = cache.NewRedisCache(redisClient, cfg.Cache.KeyPrefix, cfg.Cache.TTL)
	}

	schemaFetcher, err := fetcher.New(fetchCfg)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(log,
		render.WithReporter(provider),
		render.WithDurationObserver(provider.ObserveRender),
	)

	return &Pipeline{
		Schemas:  schemas,
		Defaults: defaultSchemas,
		Registry: registry,
		Tenants:  directory,
		Selector: selector,
		Fetcher:  schemaFetcher,
		Renderer: renderer,
	}, nil
}

func tenantDirectory(cfg *config.Config, db *sqlx.DB) tenants.Directory {
	if cfg.Tenants.Source == config.TenantSourceHTTP {
		return tenants.NewHTTPDirectory(cfg.Tenants.BaseURL, cfg.Tenants.Timeout)
	}
	return repository.NewTenantRepository(db)
}

// StartDefaultsWatcher reloads the defaults overlay directory until ctx ends.
func StartDefaultsWatcher(ctx context.Context, cfg *config.Config, p *Pipeline, log infralogger.Logger) {
	if cfg.Defaults.Dir == "" {
		return
	}
	go func() {
		if err := p.Defaults.Watch(ctx, cfg.Defaults.Dir); err != nil {
			log.Error("Default schema watcher stopped",
				infralogger.String("dir", cfg.Defaults.Dir),
				infralogger.Error(err),
			)
		}
	}()
}

// StartEventConsumer starts the schema event consumer when enabled and
// Redis is available. The returned consumer is nil otherwise.
func StartEventConsumer(
	ctx context.Context,
	cfg *config.Config,
	redisClient *redis.Client,
	p *Pipeline,
	provider *telemetry.Provider,
	log infralogger.Logger,
) *events.Consumer {
	if !cfg.Events.Enabled || redisClient == nil {
		return nil
	}

	handler := &events.InvalidationHandler{
		Pages:    p.Fetcher,
		Tenants:  p.Tenants,
		Recorder: provider,
		Log:      log,
	}
	consumer := events.NewConsumer(redisClient, cfg.Events.ConsumerID, handler, log)
	if err := consumer.Start(ctx); err != nil {
		log.Warn("Schema event consumer not started", infralogger.Error(err))
		return nil
	}
	return consumer
}
