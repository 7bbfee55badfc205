package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is a Redis-backed Cache. The backing store enforces TTL; the
// gateway never inspects an entry's expiration itself. The client lifecycle
// is managed by the caller.
type RedisCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache around an externally owned
// client.
func NewRedisCache(client redis.UniversalClient, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger,
	}
}

// Get retrieves and decodes the value stored under key into dest. It reports
// false on a miss, on any backend error, and on a decode failure.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", zap.String("key", key))
		return false
	}
	if err != nil {
		c.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if len(data) == 0 {
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("cache value decode failed", zap.String("key", key), zap.Error(err))
		return false
	}

	c.logger.Debug("cache hit", zap.String("key", key))
	return true
}

// Set stores value under key with the given TTL, or DefaultTTL when ttl is
// not positive. Writes are best-effort; failures are logged and swallowed.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache value encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}

	c.logger.Debug("cached value", zap.String("key", key), zap.Duration("ttl", ttl))
}

// Remove deletes the entry stored under key, if any.
func (c *RedisCache) Remove(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("cache remove failed", zap.String("key", key), zap.Error(err))
		return
	}
	c.logger.Debug("removed cached value", zap.String("key", key))
}

// Exists reports whether a non-empty value was retrievable for key. It shares
// Get's failure semantics: backend errors read as absent.
func (c *RedisCache) Exists(ctx context.Context, key string) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Error("cache exists check failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return len(data) > 0
}
