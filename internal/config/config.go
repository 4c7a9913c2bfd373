// Package config defines the site renderer configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/config"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// Default service configuration values.
const (
	defaultServiceName    = "site-renderer"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8095
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "site_renderer"
	defaultDBSSLMode      = "disable"
	defaultDBMaxConns     = 25
	defaultDBMaxIdleConns = 5
	defaultDBConnLifetime = time.Hour
)

// Default rendering pipeline values.
const (
	defaultRedisAddress     = "localhost:6379"
	defaultRedisDialTimeout = time.Second
	defaultRedisIOTimeout   = 250 * time.Millisecond
	defaultRedisMaxRetries  = 1
	defaultCacheTTL         = 5 * time.Minute
	defaultCacheTimeout     = 200 * time.Millisecond
	defaultCacheKeyPrefix   = "site-renderer"
	defaultFetchTimeout     = 2 * time.Second
	defaultBreakerFailures  = 5
	defaultBreakerTimeout   = 30 * time.Second
	defaultLanguage         = "en"
	defaultTheme            = "classic"
	defaultTenantSource     = TenantSourceDatabase
	defaultTenantTimeout    = time.Second
	defaultTenantCacheTTL   = time.Minute
)

// Tenant directory sources.
const (
	TenantSourceDatabase = "database"
	TenantSourceHTTP     = "http"
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Themes   ThemesConfig   `yaml:"themes"`
	Tenants  TenantsConfig  `yaml:"tenants"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service identity and runtime settings.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"SITE_RENDERER_PORT" yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"          yaml:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS"       yaml:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host                  string        `env:"POSTGRES_SITE_RENDERER_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_SITE_RENDERER_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_SITE_RENDERER_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_SITE_RENDERER_PASSWORD" yaml:"password"` //nolint:gosec // G117: DB connection config
	Database              string        `env:"POSTGRES_SITE_RENDERER_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// DSN returns the lib/pq keyword connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// MigrateURL returns the postgres:// URL golang-migrate expects.
func (d *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// RedisConfig holds Redis settings. Redis is optional; without it the
// renderer keeps only its in-process last-known-good copies.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED"  yaml:"enabled"`
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"` //nolint:gosec // G117: Redis connection config
	DB       int    `env:"REDIS_DB"       yaml:"db"`
	PoolSize int    `env:"REDIS_POOL_SIZE" yaml:"pool_size"`

	// MaxRetries of -1 disables retries.
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CacheConfig controls the shared schema cache.
type CacheConfig struct {
	TTL time.Duration `env:"SCHEMA_CACHE_TTL" yaml:"ttl"`

	// Timeout bounds each cache read and write-back, separately from the
	// store budget.
	Timeout   time.Duration `env:"SCHEMA_CACHE_TIMEOUT" yaml:"timeout"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// FetcherConfig controls how schemas are loaded from the store.
type FetcherConfig struct {
	Timeout         time.Duration `env:"SCHEMA_FETCH_TIMEOUT" yaml:"timeout"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE"     yaml:"default_language"`
}

// ThemesConfig selects themes. Override, when set, forces one theme for
// every tenant of this deployment.
type ThemesConfig struct {
	Default  string `env:"THEME_DEFAULT"  yaml:"default"`
	Override string `env:"THEME_OVERRIDE" yaml:"override"`
}

// TenantsConfig selects the tenant directory.
type TenantsConfig struct {
	Source   string        `env:"TENANT_SOURCE"   yaml:"source"`
	BaseURL  string        `env:"TENANT_BASE_URL" yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultsConfig points at an optional directory of default schema
// overrides, watched for changes.
type DefaultsConfig struct {
	Dir string `env:"DEFAULT_SCHEMAS_DIR" yaml:"dir"`
}

// EventsConfig controls the schema event consumer.
type EventsConfig struct {
	Enabled bool `env:"SCHEMA_EVENTS_ENABLED" yaml:"enabled"`
	// ConsumerID names this replica in the consumer group; generated when empty.
	ConsumerID string `yaml:"consumer_id"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"` //nolint:gosec // G117: auth config
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from a YAML file, applies defaults, then env
// overrides. A missing file leaves the defaults and environment in charge.
func Load(path string) (*Config, error) {
	cfg, loadErr := infraconfig.LoadWithDefaults(path, SetDefaults, infraconfig.AllowMissingFile())
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable and reports every
// invalid field.
func (c *Config) Validate() error {
	var v infraconfig.Validator

	v.Port("service.port", c.Service.Port)
	v.Required("database.host", c.Database.Host)
	v.Required("database.database", c.Database.Database)
	if c.Redis.Enabled {
		v.Required("redis.address", c.Redis.Address)
	}
	if c.Events.Enabled && !c.Redis.Enabled {
		v.Fail("events.enabled", "requires redis.enabled")
	}
	v.Positive("fetcher.timeout", int64(c.Fetcher.Timeout))
	if _, err := domain.NormalizeLanguage(c.Fetcher.DefaultLanguage); err != nil {
		v.Fail("fetcher.default_language", "is not a BCP 47 tag")
	}
	v.Positive("cache.ttl", int64(c.Cache.TTL))
	v.Positive("cache.timeout", int64(c.Cache.Timeout))
	v.OneOf("tenants.source", c.Tenants.Source, TenantSourceDatabase, TenantSourceHTTP)
	v.Positive("tenants.timeout", int64(c.Tenants.Timeout))
	if c.Tenants.Source == TenantSourceHTTP {
		v.Required("tenants.base_url", c.Tenants.BaseURL)
	}
	v.OneOf("logging.format", c.Logging.Format, "json", "console")
	v.LogLevel("logging.level", c.Logging.Level)

	return v.Err()
}

// SetDefaults applies default values to all configuration sections.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setPipelineDefaults(cfg)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetime
	}
}

func setPipelineDefaults(cfg *Config) {
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Redis.MaxRetries == 0 {
		cfg.Redis.MaxRetries = defaultRedisMaxRetries
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = defaultRedisDialTimeout
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = defaultRedisIOTimeout
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = defaultRedisIOTimeout
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Cache.Timeout == 0 {
		cfg.Cache.Timeout = defaultCacheTimeout
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = defaultCacheKeyPrefix
	}
	if cfg.Fetcher.Timeout == 0 {
		cfg.Fetcher.Timeout = defaultFetchTimeout
	}
	if cfg.Fetcher.BreakerFailures == 0 {
		cfg.Fetcher.BreakerFailures = defaultBreakerFailures
	}
	if cfg.Fetcher.BreakerTimeout == 0 {
		cfg.Fetcher.BreakerTimeout = defaultBreakerTimeout
	}
	if cfg.Fetcher.DefaultLanguage == "" {
		cfg.Fetcher.DefaultLanguage = defaultLanguage
	}
	if cfg.Themes.Default == "" {
		cfg.Themes.Default = defaultTheme
	}
	if cfg.Tenants.Source == "" {
		cfg.Tenants.Source = defaultTenantSource
	}
	if cfg.Tenants.Timeout == 0 {
		cfg.Tenants.Timeout = defaultTenantTimeout
	}
	if cfg.Tenants.CacheTTL == 0 {
		cfg.Tenants.CacheTTL = defaultTenantCacheTTL
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
