package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Second

// ReportCache stores serialized report snapshots with a short TTL so repeated
// dashboard hits do not rescan the store. Reports are best-effort snapshots,
// so a stale entry within the TTL is acceptable.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a ReportCache wrapping the given Redis client.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Get unmarshals the cached value for key into v. The second return is false
// on a cache miss.
func (c *ReportCache) Get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("report cache get: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("report cache decode: %w", err)
	}
	return true, nil
}

// Set stores v under key, expiring after the configured TTL.
func (c *ReportCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("report cache encode: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
