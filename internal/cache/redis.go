package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache shares filtering outcomes across processes through Redis.
type RedisCache struct {
	client *redis.Client
	config Config
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(config Config, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.MaxConnections
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Result cache initialized",
		zap.String("redis_url", maskRedisURL(config.RedisURL)),
		zap.Duration("default_ttl", config.DefaultTTL))

	return &RedisCache{client: client, config: config, logger: logger}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, bool) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Result()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false
	} else if err != nil {
		c.logger.Error("Cache lookup failed", zap.Error(err))
		c.misses.Add(1)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.Error("Failed to unmarshal cached entry", zap.Error(err))
		c.client.Del(ctx, c.fullKey(key))
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return &entry, true
}

func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) {
	entry.CachedAt = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("Failed to marshal entry for caching", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, c.fullKey(key), data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("Failed to cache entry", zap.Error(err))
	}
}

func (c *RedisCache) Stats() Stats {
	stats := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *RedisCache) fullKey(key string) string {
	return c.config.KeyPrefix + ":result:" + key
}

// maskRedisURL masks the password portion of a Redis URL for logging.
func maskRedisURL(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	head := url[:at]
	colon := strings.LastIndex(head, ":")
	if colon < 0 || !strings.Contains(head[:colon], "//") {
		return url
	}
	return head[:colon] + ":***" + url[at:]
}
