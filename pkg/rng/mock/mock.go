// Package mock provides scripted [rng.Source] implementations for tests.
package mock

import (
	"sync"

	"github.com/thornwick/eidolon/pkg/rng"
)

// Compile-time interface checks.
var (
	_ rng.Source = (*Scripted)(nil)
	_ rng.Source = (*Failing)(nil)
)

// Scripted replays a fixed sequence of draws. Once the sequence is
// exhausted it returns [rng.ErrUnavailable], which makes over-consumption
// of randomness visible in tests.
type Scripted struct {
	mu    sync.Mutex
	draws []float64
	next  int
}

// NewScripted returns a [Scripted] source that yields the given draws in order.
func NewScripted(draws ...float64) *Scripted {
	return &Scripted{draws: draws}
}

// Float64 implements [rng.Source].
func (s *Scripted) Float64() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.draws) {
		return 0, rng.ErrUnavailable
	}
	v := s.draws[s.next]
	s.next++
	return v, nil
}

// Failing always returns [rng.ErrUnavailable]. Useful for verifying that
// callers surface randomness failures instead of swallowing them.
type Failing struct{}

// Float64 implements [rng.Source].
func (Failing) Float64() (float64, error) {
	return 0, rng.ErrUnavailable
}
