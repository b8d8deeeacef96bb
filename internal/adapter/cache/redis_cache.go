package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores values of type T by numeric id.
type Cache[T any] interface {
	// Get returns the cached value for id. found is false on a cache miss.
	Get(ctx context.Context, id int64) (T, bool, error)

	// Set stores v under id with the configured TTL.
	Set(ctx context.Context, id int64, v T) error

	// Delete removes the given ids. Missing keys are ignored.
	Delete(ctx context.Context, ids ...int64) error
}

// RedisCache implements Cache as JSON documents in Redis under "<prefix>:<id>".
type RedisCache[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCache creates a Redis-backed cache for keys under prefix.
func NewRedisCache[T any](client redis.UniversalClient, prefix string, ttl time.Duration, log *zap.Logger) *RedisCache[T] {
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log.With(zap.String("cache", prefix)),
	}
}

// Key returns the Redis key holding id.
func (c *RedisCache[T]) Key(id int64) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}

// Get retrieves a value from Redis.
func (c *RedisCache[T]) Get(ctx context.Context, id int64) (T, bool, error) {
	var v T

	data, err := c.client.Get(ctx, c.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("id", id))
		return v, false, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("id", id), zap.Error(err))
		return v, false, err
	}

	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Error("failed to unmarshal cached value", zap.Int64("id", id), zap.Error(err))
		return v, false, err
	}

	c.log.Debug("cache hit", zap.Int64("id", id))
	return v, true, nil
}

// Set stores v in Redis with the TTL.
func (c *RedisCache[T]) Set(ctx context.Context, id int64, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to marshal value for cache", zap.Int64("id", id), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, c.Key(id), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.Int64("id", id), zap.Error(err))
		return err
	}

	c.log.Debug("cached value", zap.Int64("id", id), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete removes ids from Redis.
func (c *RedisCache[T]) Delete(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.Key(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.Int("count", len(ids)), zap.Error(err))
		return err
	}

	c.log.Debug("deleted from cache", zap.Int("count", len(ids)))
	return nil
}
