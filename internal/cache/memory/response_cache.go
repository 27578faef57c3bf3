// Package memory implements the response cache as an in-process TTL map.
// It is the default backend; redis takes over when configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fablestreet/marketsim/internal/domain"
)

type entry struct {
	result   domain.SimulationResult
	storedAt time.Time
}

// ResponseCache memoizes simulation results with lazy expiry on read and
// a background sweep.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewResponseCache builds a cache whose entries expire after ttl. The
// janitor goroutine runs until Close.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the cached result for key, or domain.ErrNotFound when the
// key is absent or expired.
func (c *ResponseCache) Get(_ context.Context, key string) (domain.SimulationResult, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.storedAt) > c.ttl {
		return domain.SimulationResult{}, domain.ErrNotFound
	}
	return e.result, nil
}

// Set stores a result under key, resetting its TTL.
func (c *ResponseCache) Set(_ context.Context, key string, result domain.SimulationResult) error {
	c.mu.Lock()
	c.entries[key] = entry{result: result, storedAt: time.Now()}
	c.mu.Unlock()
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the janitor.
func (c *ResponseCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *ResponseCache) janitor() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *ResponseCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if time.Since(e.storedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

var _ domain.ResponseCache = (*ResponseCache)(nil)
