// Package bootstrap handles application initialization and lifecycle management
// for the site-renderer service.
package bootstrap

import (
	"context"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Start initializes and runs the site-renderer service.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, configErr := LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Profiling (env-gated)
	profiling.StartPprofServer(log)
	profiler, profErr := profiling.StartPyroscope(cfg.Service.Name, log)
	if profErr != nil {
		log.Warn("Continuous profiling disabled", infralogger.Error(profErr))
	}
	defer func() { _ = profiler.Stop() }()

	log.Info("Starting Site Renderer",
		infralogger.Int("port", cfg.Service.Port),
		infralogger.String("default_theme", cfg.Themes.Default),
		infralogger.String("tenant_source", cfg.Tenants.Source),
	)

	// Phase 3: Schema store
	db, dbErr := SetupDatabase(cfg)
	if dbErr != nil {
		return fmt.Errorf("database: %w", dbErr)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", infralogger.Error(closeErr))
		}
	}()
	log.Info("Database connection established")

	// Phase 4: Shared cache (optional)
	redisClient := SetupRedis(cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Phase 5: Metrics and render pipeline
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	provider := telemetry.NewProvider(reg)

	pipeline, pipeErr := SetupPipeline(cfg, db, redisClient, provider, log)
	if pipeErr != nil {
		return fmt.Errorf("pipeline: %w", pipeErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartDefaultsWatcher(ctx, cfg, pipeline, log)

	// Phase 6: Schema events (optional)
	if consumer := StartEventConsumer(ctx, cfg, redisClient, pipeline, provider, log); consumer != nil {
		defer consumer.Stop()
	}

	// Phase 7: HTTP server
	server := SetupHTTPServer(cfg, db, redisClient, pipeline, reg, log)
	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server: %w", runErr)
	}

	log.Info("Site Renderer stopped")
	return nil
}
