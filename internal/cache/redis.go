// Package cache holds fetched page schemas: a shared Redis cache with a TTL
// and an in-process last-known-good copy per page used during store outages.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisCache stores PageSchema JSON under prefix:schema:<scope>:<slug>:<lang>.
// Slug and language are query-escaped, so neither can contain a separator or
// a glob metacharacter.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache with the given key prefix and entry TTL.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(ref domain.PageRef) string {
	return c.prefix + ":schema:" + ref.Scope() + ":" + url.QueryEscape(ref.Slug) + ":" + url.QueryEscape(ref.Language)
}

// Get returns the cached schema for ref. A miss is (zero, false, nil).
func (c *RedisCache) Get(ctx context.Context, ref domain.PageRef) (domain.PageSchema, bool, error) {
	data, err := c.client.Get(ctx, c.key(ref)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PageSchema{}, false, nil
	}
	if err != nil {
		return domain.PageSchema{}, false, fmt.Errorf("cache get %s: %w", ref, err)
	}

	var schema domain.PageSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		// A corrupt entry is a miss; the next Set replaces it.
		return domain.PageSchema{}, false, nil //nolint:nilerr // treated as a miss
	}
	return schema, true, nil
}

// Set stores schema under ref with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, ref domain.PageRef, schema domain.PageSchema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema %s: %w", ref, err)
	}
	if err := c.client.Set(ctx, c.key(ref), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", ref, err)
	}
	return nil
}

// InvalidatePage deletes every cached language of slug. For a master page
// (nil tenantID) entries cached for every tenant are dropped, since tenants
// without their own copy were served the master page.
func (c *RedisCache) InvalidatePage(ctx context.Context, tenantID *uuid.UUID, slug string) (int, error) {
	scope := "*"
	if tenantID != nil {
		scope = tenantID.String()
	}
	pattern := c.prefix + ":schema:" + scope + ":" + url.QueryEscape(slug) + ":*"
	return c.deleteMatching(ctx, pattern)
}

// InvalidateAll deletes every cached schema.
func (c *RedisCache) InvalidateAll(ctx context.Context) (int, error) {
	return c.deleteMatching(ctx, c.prefix+":schema:*")
}

func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("cache delete: %w", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}
