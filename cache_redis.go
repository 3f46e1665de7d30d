package tagoreq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces cache keys in a shared Redis.
const DefaultRedisKeyPrefix = "tagoreq:cache:"

// RedisCache is a Cache shared between processes. Values are stored JSON
// encoded and expire natively, so Sweep has nothing to do. Redis failures
// degrade to cache misses and are reported to the logger.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	prefix string
	logger Logger
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisKeyPrefix overrides DefaultRedisKeyPrefix.
func WithRedisKeyPrefix(prefix string) RedisCacheOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithRedisLogger reports Redis failures to logger.
func WithRedisLogger(logger Logger) RedisCacheOption {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

// NewRedisCache creates a Redis-backed cache using client.
func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ctx:    context.Background(),
		prefix: DefaultRedisKeyPrefix,
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(fp Fingerprint) string {
	return c.prefix + fp.String()
}

func (c *RedisCache) Get(key Fingerprint) (any, bool) {
	data, err := c.client.Get(c.ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Redis cache read failed", "key", key.String(), "error", err.Error())
		return nil, false
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn("Redis cache entry undecodable", "key", key.String(), "error", err.Error())
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(key Fingerprint, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Redis cache entry unencodable", "key", key.String(), "error", err.Error())
		return
	}
	if err := c.client.Set(c.ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.Warn("Redis cache write failed", "key", key.String(), "error", err.Error())
	}
}

func (c *RedisCache) Delete(key Fingerprint) {
	if err := c.client.Del(c.ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("Redis cache delete failed", "key", key.String(), "error", err.Error())
	}
}

// Sweep is a no-op: Redis expires keys on its own.
func (c *RedisCache) Sweep() {}

// Clear removes every key under the cache prefix.
func (c *RedisCache) Clear() {
	keys, err := c.scan()
	if err != nil {
		c.logger.Warn("Redis cache scan failed", "error", err.Error())
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(c.ctx, keys...).Err(); err != nil {
		c.logger.Warn("Redis cache clear failed", "error", err.Error())
	}
}

// Len counts the keys under the cache prefix.
func (c *RedisCache) Len() int {
	keys, err := c.scan()
	if err != nil {
		c.logger.Warn("Redis cache scan failed", "error", err.Error())
		return 0
	}
	return len(keys)
}

func (c *RedisCache) scan() ([]string, error) {
	var keys []string
	iter := c.client.Scan(c.ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(c.ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
