package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache implements caching backed by a Redis server, for sharing
// retrieval results across processes in batch experiments.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache creates a new Redis cache. Returns an error if the server
// is unreachable so callers can fall back to a local backend.
func NewRedisCache(addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		ctx:    ctx,
	}, nil
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(key string) ([]byte, bool) {
	val, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores a value in Redis with the given TTL
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(c.ctx, key, value, ttl).Err()
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(key string) error {
	return c.client.Del(c.ctx, key).Err()
}

// Clear removes all groundcheck keys from Redis
func (c *RedisCache) Clear() error {
	iter := c.client.Scan(c.ctx, 0, "groundcheck:*", 0).Iterator()
	for iter.Next(c.ctx) {
		if err := c.client.Del(c.ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
