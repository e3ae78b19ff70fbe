package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cryptocollector/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "snapshot:"

// RedisCache keeps the latest snapshot per symbol in Redis with a fixed
// TTL. One key per symbol; a new write overwrites the previous value and
// resets the expiry. Expiry itself is enforced by Redis, so an entry
// older than the TTL is never observable.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates the cache client and pings Redis; an unreachable
// cache store is a startup error, not something to retry into.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

// Key returns the cache key for a symbol.
func Key(symbol string) string { return keyPrefix + symbol }

// StoreSnapshot writes the snapshot under its symbol key with the
// configured TTL. Failures are reported, not retried here; the retry
// policy lives in the collection cycle.
func (c *RedisCache) StoreSnapshot(ctx context.Context, s model.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return &model.StoreError{Sink: "cache", Err: err}
	}
	if err := c.rdb.Set(ctx, Key(s.Symbol), b, c.ttl).Err(); err != nil {
		return &model.StoreError{Sink: "cache", Err: err}
	}
	return nil
}

// Snapshot reads back the cached snapshot for a symbol. Returns
// redis.Nil wrapped in a StoreError when no entry exists (expired or
// never written).
func (c *RedisCache) Snapshot(ctx context.Context, symbol string) (model.Snapshot, error) {
	b, err := c.rdb.Get(ctx, Key(symbol)).Bytes()
	if err != nil {
		return model.Snapshot{}, &model.StoreError{Sink: "cache", Err: err}
	}
	var s model.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return model.Snapshot{}, &model.StoreError{Sink: "cache", Err: err}
	}
	return s, nil
}

// Health checks the Redis connection.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
