// Package cache holds a small redis-backed cache for aggregator search
// results. The cache is best-effort: a miss, a marshalling problem or an
// unreachable redis never fails the request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSearchCache connects to redis at redisURL. An empty URL disables
// caching; all methods are safe on a nil receiver.
func NewSearchCache(redisURL string, ttl time.Duration, logger *slog.Logger) (*SearchCache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &SearchCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Key builds the cache key for one search request.
func Key(query string, page, perPage int) string {
	return fmt.Sprintf("search:%s:%d:%d", query, page, perPage)
}

// Get loads a cached value into dest and reports whether it was present.
func (c *SearchCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug("cache entry malformed, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (c *SearchCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
}

// Close releases the underlying redis connection.
func (c *SearchCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
