package api

import (
	"time"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/metrics"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// ServerDeps are the collaborators the HTTP server routes to.
type ServerDeps struct {
	Pages    *PageHandler
	Catalog  *CatalogHandler
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer
	// DBPing and RedisPing back /health; RedisPing is nil without Redis.
	DBPing    func() error
	RedisPing func() error
}

// NewServer creates a new HTTP server.
func NewServer(deps ServerDeps, cfg *config.Config, log infralogger.Logger) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithMiddleware(deps.Metrics.Middleware())

	if deps.DBPing != nil {
		builder = builder.WithDatabaseHealthCheck(deps.DBPing)
	}
	if deps.RedisPing != nil {
		builder = builder.WithRedisHealthCheck(deps.RedisPing)
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, deps.Pages, deps.Catalog, deps.Gatherer, cfg.Auth.JWTSecret)
		}).
		Build()
}
