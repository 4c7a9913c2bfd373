// Package redis builds go-redis clients from service configuration.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	infracontext "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/context"
	"github.com/redis/go-redis/v9"
)

// Config holds connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
	// PoolSize of zero keeps the go-redis default of 10 per CPU.
	PoolSize int
	// DialTimeout of zero means defaultDialTimeout.
	DialTimeout time.Duration
	// Zero keeps the go-redis defaults: 3 retries and 3s per read or write.
	// A MaxRetries of -1 disables retries.
	MaxRetries   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ErrEmptyAddress is returned when no address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

const defaultDialTimeout = 2 * time.Second

// NewClient connects and pings. The client is closed again if the ping fails.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  dial,
		MaxRetries:   cfg.MaxRetries,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := HealthCheck(client)(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}

	return client, nil
}

// HealthCheck returns a bounded ping suitable for the /health endpoint.
func HealthCheck(client *redis.Client) func() error {
	return infracontext.Probe(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
