package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fablestreet/marketsim/internal/domain"
)

// ResponseCache implements domain.ResponseCache with JSON blobs under a
// per-key TTL.
//
// Key schema:
//
//	simresult:{structural hash} - JSON-encoded SimulationResult
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResponseCache creates a ResponseCache whose entries expire after ttl.
func NewResponseCache(c *Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{rdb: c.rdb, ttl: ttl}
}

func resultKey(key string) string { return "simresult:" + key }

// Get retrieves a cached simulation result. Missing or expired keys
// return domain.ErrNotFound.
func (rc *ResponseCache) Get(ctx context.Context, key string) (domain.SimulationResult, error) {
	data, err := rc.rdb.Get(ctx, resultKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SimulationResult{}, domain.ErrNotFound
		}
		return domain.SimulationResult{}, fmt.Errorf("redis: get result %s: %w", key, err)
	}

	var result domain.SimulationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("redis: unmarshal result %s: %w", key, err)
	}
	return result, nil
}

// Set stores a simulation result under the structural key with the cache
// TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, result domain.SimulationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal result %s: %w", key, err)
	}
	if err := rc.rdb.Set(ctx, resultKey(key), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set result %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ResponseCache = (*ResponseCache)(nil)
