// Package cache stores computed guidance in Redis, keyed by user and snapshot content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "guidance"

// GuidanceCache wraps the Redis client
type GuidanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache from configuration. The connection is established lazily.
func New(cfg config.RedisConfig) *GuidanceCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return NewWithClient(rdb, cfg.CacheTTL)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *GuidanceCache {
	return &GuidanceCache{client: client, ttl: ttl}
}

// Key returns guidance:{user_id}:{revision}:{sha256 of the snapshot JSON}. Any change to
// the snapshot or to the engine revision yields a new key, so entries computed by a
// different catalog or configuration are never served.
func Key(revision string, raw *types.RawSnapshot) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("snapshot is required")
	}
	if revision == "" {
		return "", fmt.Errorf("engine revision is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, raw.UserID, revision, hex.EncodeToString(sum[:])), nil
}

// Get returns the cached state for key. A miss is (nil, false, nil).
func (c *GuidanceCache) Get(ctx context.Context, key string) (*types.GuidanceState, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var state types.GuidanceState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached guidance: %w", err)
	}
	return &state, true, nil
}

// Set stores state under key with the configured TTL.
func (c *GuidanceCache) Set(ctx context.Context, key string, state *types.GuidanceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal guidance: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate deletes every cached entry for a user and returns how many were removed.
func (c *GuidanceCache) Invalidate(ctx context.Context, userID string) (int64, error) {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, userID)
	var removed int64
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("redis del failed: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, nil
}

// Ping tests the Redis connection
func (c *GuidanceCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *GuidanceCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
