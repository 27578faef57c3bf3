package sim

import (
	mathrand "math/rand"
	"sync"
)

// Source supplies the randomness for the simulator and the event
// scheduler. Tests inject scripted or seeded implementations.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// LockedSource wraps math/rand behind a mutex so one source can serve
// concurrent requests.
type LockedSource struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewLockedSource seeds a concurrency-safe random source.
func NewLockedSource(seed int64) *LockedSource {
	return &LockedSource{rand: mathrand.New(mathrand.NewSource(seed))}
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *LockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(n)
}

var _ Source = (*LockedSource)(nil)
