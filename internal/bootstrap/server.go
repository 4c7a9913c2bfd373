package bootstrap

import (
	"github.com/jmoiron/sqlx"
	infracontext "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/context"
	infragin "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/metrics"
	infraredis "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/api"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const metricsNamespace = "site_renderer"

// SetupHTTPServer creates the HTTP server with all handlers wired.
func SetupHTTPServer(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	p *Pipeline,
	reg *prometheus.Registry,
	log infralogger.Logger,
) *infragin.Server {
	deps := api.ServerDeps{
		Pages:    api.NewPageHandler(p.Fetcher, p.Selector, p.Renderer, log),
		Catalog:  api.NewCatalogHandler(p.Registry, cfg.Themes.Default, p.Schemas, log),
		Metrics:  metrics.NewHTTP(reg, metricsNamespace),
		Gatherer: reg,
		DBPing:   infracontext.Probe(db.PingContext),
	}
	if redisClient != nil {
		deps.RedisPing = infraredis.HealthCheck(redisClient)
	}

	return api.NewServer(deps, cfg, log)
}
