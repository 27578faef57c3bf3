package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fablestreet/marketsim/internal/domain"
)

// stubCompleter replays a scripted reply or error and counts calls.
type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	delay time.Duration
	calls int
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	reply, err, delay := c.reply, c.err, c.delay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (c *stubCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fixedSource replays scripted draws and repeats the final value once the
// script runs out.
type fixedSource struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
	fi, ii int
}

func (s *fixedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi]
	if s.fi < len(s.floats)-1 {
		s.fi++
	}
	return v
}

func (s *fixedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii]
	if s.ii < len(s.ints)-1 {
		s.ii++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func catalogFixture() []domain.Stock {
	return []domain.Stock{
		{Ticker: "ABC", Name: "Arc Bionics", Price: 100, PreviousDayPrice: 98, Volatility: 5},
		{Ticker: "QRS", Name: "Quartz Rail Systems", Price: 50, PreviousDayPrice: 52, Volatility: 8},
	}
}
