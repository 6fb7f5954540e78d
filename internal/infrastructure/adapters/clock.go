// Package adapters holds the small outbound adapters the planner runs with
// when no external service backs a port: the clock, the random source, the
// subscription window, and log-backed progress and notification sinks.
package adapters

import (
	"math/rand"
	"sync"
	"time"

	"github.com/alchemorsel/mealprep/internal/ports/outbound"
)

// SystemClock reads the wall clock in UTC
type SystemClock struct{}

// NewSystemClock creates a system clock
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time in UTC
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// LockedRandom is a seeded random source safe for concurrent use
type LockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom creates a random source. A zero seed is replaced by the current
// time so only explicitly seeded sources are reproducible.
func NewRandom(seed int64) *LockedRandom {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRandom{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random number in [0, n)
func (r *LockedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0, 1.0)
func (r *LockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

var (
	_ outbound.Clock        = SystemClock{}
	_ outbound.RandomSource = (*LockedRandom)(nil)
)
