// Package rng defines the injectable random source used by every stochastic
// code path in Eidolon (disclosure draws, decision perturbation).
//
// Nothing in the cognition core ever reads process-global random state: a
// [Source] is passed explicitly at construction time so that, for a given
// seed and input snapshot, behaviour is fully reproducible. The reference
// implementation is [Seeded]; tests can use pkg/rng/mock for scripted draws.
package rng

import "errors"

// ErrUnavailable is returned by a [Source] that cannot produce a draw (for
// example, an exhausted scripted source or a failed external entropy pool).
// Callers must surface it rather than substituting a fallback draw, since a
// silent fallback would corrupt reproducibility guarantees.
var ErrUnavailable = errors.New("rng: random source unavailable")

// Source produces uniform random draws. Implementations must be safe for
// concurrent use.
type Source interface {
	// Float64 returns the next uniform draw in [0, 1).
	Float64() (float64, error)
}
