package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by [RedisCache].
const DefaultRedisPrefix = "layerstack:"

// RedisCache stores entries in Redis with native key expiry.
type RedisCache struct {
	rdb    goredis.UniversalClient
	prefix string
	owned  bool
}

// NewRedisCache connects to the Redis server at url (for example
// "redis://localhost:6379/0") and verifies the connection with PING.
// Keys are stored under [DefaultRedisPrefix].
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{rdb: rdb, prefix: DefaultRedisPrefix, owned: true}, nil
}

// NewRedisCacheWithClient wraps an existing client. Close does not close
// the client.
func NewRedisCacheWithClient(rdb goredis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a value in Redis. A ttl of zero keeps the key forever.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear deletes every key under the cache prefix using SCAN, so it does not
// block the server on large keyspaces.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	count := 0
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return count, fmt.Errorf("redis del: %w", err)
		}
		count += int(n)
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}

// Close closes the connection if this cache created it.
func (c *RedisCache) Close() error {
	if !c.owned {
		return nil
	}
	return c.rdb.Close()
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
