package bootstrap

import (
	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/redis/go-redis/v9"
)

// SetupRedis connects to Redis when enabled. Returns nil if Redis is
// disabled or unavailable; the renderer then runs without the shared cache
// and without schema events.
func SetupRedis(cfg *config.Config, log infralogger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, shared schema cache off")
		return nil
	}

	client, err := infraredis.NewClient(infraredis.Config{
		Address:      cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		MaxRetries:   cfg.Redis.MaxRetries,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Warn("Redis not available, shared schema cache off",
			infralogger.String("redis_address", cfg.Redis.Address),
			infralogger.Error(err),
		)
		return nil
	}

	log.Info("Redis connected", infralogger.String("redis_address", cfg.Redis.Address))
	return client
}
