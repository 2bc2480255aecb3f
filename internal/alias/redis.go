package alias

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "worldcup:alias:"

// RedisCache shares resolved aliases between runs and processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached alias for playerID.
func (c *RedisCache) Get(ctx context.Context, playerID string) (string, bool, error) {
	alias, err := c.client.Get(ctx, redisKeyPrefix+playerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get alias %s: %w", playerID, err)
	}
	return alias, true, nil
}

// Set stores alias with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, playerID, alias string) error {
	if err := c.client.Set(ctx, redisKeyPrefix+playerID, alias, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set alias %s: %w", playerID, err)
	}
	return nil
}
