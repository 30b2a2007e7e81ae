// Package rediscache provides an optional read-through cache for task
// status lookups. Clients poll task status every few seconds while a
// flower grows, so cache hits spare the database most of that traffic.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/zengarden/zengarden-api/internal/config"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// TaskCache caches serialized task status payloads keyed by task id.
// A nil *TaskCache is valid and behaves as a disabled cache, so callers
// never branch on whether Redis is configured.
type TaskCache struct {
	logger *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

// NewTaskCache connects to Redis with the given configuration. It
// returns (nil, nil) when no address is configured: the cache is
// optional and deployments without Redis run uncached.
func NewTaskCache(ctx context.Context, logger *slog.Logger, cfg config.CacheConfig) (*TaskCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &TaskCache{
		logger: logger.With(slog.String("component", "task_cache")),
		client: client,
		ttl:    ttl,
	}, nil
}

// taskKey builds the cache key for a task id.
func taskKey(taskID string) string {
	return "task:" + taskID
}

// Get unmarshals the cached payload for the task into dest. It returns
// ErrCacheMiss when the cache is disabled or the key is absent.
func (c *TaskCache) Get(ctx context.Context, taskID string, dest any) error {
	if c == nil {
		return ErrCacheMiss
	}

	val, err := c.client.Get(ctx, taskKey(taskID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("reading task %s from cache: %w", taskID, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("decoding cached task %s: %w", taskID, err)
	}
	return nil
}

// Set stores the payload for the task. Failures are logged, not
// returned: the cache is an optimization and must never fail a lookup.
func (c *TaskCache) Set(ctx context.Context, taskID string, payload any) {
	if c == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode task for cache",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, taskKey(taskID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to write task to cache",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached payload for the task. Every task status
// write goes through here so pollers never see a stale terminal state.
func (c *TaskCache) Invalidate(ctx context.Context, taskID string) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, taskKey(taskID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "Failed to invalidate cached task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
	}
}

// Close releases the underlying Redis connection.
func (c *TaskCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
