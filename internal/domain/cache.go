package domain

import (
	"context"
	"time"
)

// ResponseCache memoizes simulation results for a short window so identical
// requests do not re-invoke the LLM. Implementations handle TTL themselves;
// a miss or an expired entry returns ErrNotFound.
type ResponseCache interface {
	Get(ctx context.Context, key string) (SimulationResult, error)
	Set(ctx context.Context, key string, result SimulationResult) error
}

// RateLimiter bounds request rates per client key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
