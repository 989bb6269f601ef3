package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "fundsim:marketdata:"

// RedisCache stores entries in Redis so indicator snapshots are shared
// across fundsim instances. Redis errors are treated as cache misses.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at addr.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Get returns the entry for key, missing on any Redis or decode error.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := c.client.Get(ctx, redisPrefix+key).Result()
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, false
	}
	if e.Expired(time.Now()) {
		return Entry{}, false
	}
	return e, true
}

// Set stores the entry with a Redis TTL matching its expiry. Entries
// already expired are not written.
func (c *RedisCache) Set(ctx context.Context, key string, e Entry) error {
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marketdata: encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("marketdata: redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("marketdata: redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
