package gin

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/jwt"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
)

// ServerBuilder assembles a Server fluently.
type ServerBuilder struct {
	config       *Config
	logger       logger.Logger
	setupRoutes  func(*gin.Engine)
	middleware   []gin.HandlerFunc
	healthChecks map[string]HealthChecker
}

// NewServerBuilder starts a builder for serviceName listening on port.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:       NewConfig(serviceName, port),
		healthChecks: make(map[string]HealthChecker),
	}
}

// WithLogger sets the server logger.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

// WithDebug toggles Gin debug mode.
func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the version reported by /health.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithCORSOrigins restricts CORS to origins.
func (b *ServerBuilder) WithCORSOrigins(origins []string) *ServerBuilder {
	b.config.CORS.AllowedOrigins = origins
	return b
}

// WithTimeouts sets the read, write and idle timeouts.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithMiddleware appends middleware after the standard chain.
func (b *ServerBuilder) WithMiddleware(mw ...gin.HandlerFunc) *ServerBuilder {
	b.middleware = append(b.middleware, mw...)
	return b
}

// WithHealthCheck registers a named check reported by /health.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// WithDatabaseHealthCheck registers a critical database check.
func (b *ServerBuilder) WithDatabaseHealthCheck(ping func() error) *ServerBuilder {
	return b.WithHealthCheck("database", PingHealthChecker("Database", ping, HealthStatusUnhealthy))
}

// WithRedisHealthCheck registers a non-critical Redis check.
func (b *ServerBuilder) WithRedisHealthCheck(ping func() error) *ServerBuilder {
	return b.WithHealthCheck("redis", PingHealthChecker("Redis", ping, HealthStatusDegraded))
}

// WithRoutes sets the service route setup.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the Server.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.Must(logger.Config{Development: b.config.Debug})
	}

	setup := func(router *gin.Engine) {
		if len(b.middleware) > 0 {
			router.Use(b.middleware...)
		}

		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.healthChecks,
		})

		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	return NewServer(b.config, b.logger, setup)
}

// ProtectedGroup returns a group guarded by JWT auth. An empty secret leaves
// the group open, which is only meant for local development.
func ProtectedGroup(router gin.IRouter, path, jwtSecret string) *gin.RouterGroup {
	group := router.Group(path)
	if jwtSecret != "" {
		group.Use(jwt.Middleware(jwtSecret))
	}
	return group
}

// SetupAPIRoutesWithPublic returns public and JWT-protected /api/v1 groups.
func SetupAPIRoutesWithPublic(router *gin.Engine, jwtSecret string) (publicGroup, protectedGroup *gin.RouterGroup) {
	publicGroup = router.Group("/api/v1")
	protectedGroup = ProtectedGroup(router, "/api/v1", jwtSecret)
	return publicGroup, protectedGroup
}
