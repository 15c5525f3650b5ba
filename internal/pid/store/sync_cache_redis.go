package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pidstore/pkg/platform/sentinel"
)

const syncKeyPrefix = "pid:sync:"

// RedisSyncCache stores sync results in Redis with a TTL so stale results
// drop out on their own.
type RedisSyncCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSyncCache constructs a Redis-backed sync cache. The client
// lifecycle is managed by the caller.
func NewRedisSyncCache(client *redis.Client, ttl time.Duration) *RedisSyncCache {
	return &RedisSyncCache{client: client, ttl: ttl}
}

func (c *RedisSyncCache) Put(ctx context.Context, rec SyncRecord) error {
	if rec.Value == "" {
		return fmt.Errorf("sync record value is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode sync record: %w", err)
	}
	if err := c.client.Set(ctx, syncKeyPrefix+rec.Value, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("put sync record: %w", err)
	}
	return nil
}

func (c *RedisSyncCache) Get(ctx context.Context, value string) (*SyncRecord, error) {
	data, err := c.client.Get(ctx, syncKeyPrefix+value).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("sync %s: %w", value, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sync record: %w", err)
	}
	var rec SyncRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode sync record: %w", err)
	}
	return &rec, nil
}
