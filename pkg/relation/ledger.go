package relation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/thornwick/eidolon/pkg/memory"
	"github.com/thornwick/eidolon/pkg/rng"
)

// Per-update step bounds. A single event can never swing trust or valence
// further than these, however extreme its valence.
const (
	maxTrustStep   = 0.15
	maxValenceStep = 0.25
)

// trustResponse scales how strongly each event type moves trust. Deeds move
// it most, hearsay least.
var trustResponse = map[memory.MemoryType]float64{
	memory.TypeAction:      1.0,
	memory.TypeDialogue:    0.8,
	memory.TypeEncounter:   0.6,
	memory.TypeEmotion:     0.7,
	memory.TypeObservation: 0.4,
	memory.TypeRumor:       0.3,
}

// Delta is the signed adjustment an update actually applied after clamping.
type Delta struct {
	Trust   float64
	Valence float64
}

// LedgerOption configures a [Ledger].
type LedgerOption func(*Ledger)

// WithClock substitutes the time source used for UpdatedAt stamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// Ledger tracks pairwise relationships over a [Backend].
//
// Update performs a read-modify-write cycle under an internal mutex so
// concurrent events for the same NPC never lose adjustments. Reads (Get,
// Disclose) go straight to the backend.
type Ledger struct {
	backend Backend
	random  rng.Source
	now     func() time.Time

	mu sync.Mutex
}

// NewLedger returns a [Ledger] over backend, drawing disclosure randomness
// from random.
func NewLedger(backend Backend, random rng.Source, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		backend: backend,
		random:  random,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Get returns the relationship npcID holds toward otherID, materializing a
// neutral default when none is stored. An unknown pair is never an error;
// only backend failures are.
func (l *Ledger) Get(ctx context.Context, npcID, otherID string) (Relationship, error) {
	rel, found, err := l.backend.Get(ctx, npcID, otherID)
	if err != nil {
		return Relationship{}, fmt.Errorf("relation: get %s->%s: %w", npcID, otherID, err)
	}
	if !found {
		return Neutral(npcID, otherID), nil
	}
	return rel, nil
}

// Update applies a bounded trust/valence adjustment derived from the event's
// valence and type, clamps both fields to their ranges, and persists the
// result. The returned [Delta] is the adjustment that actually landed after
// clamping, for logging and tests.
//
// Type reclassification: when the stored type is one of the automatically
// derived tags (neutral, allied, hostile), crossing a threshold rewrites it:
// trust > 0.8 and valence > 0.4 turns the pair allied; trust < 0.2 and
// valence < -0.5 turns it hostile; leaving both bands reverts to neutral.
// Deliberately assigned tags (fears, respects, distrusts, economic,
// political) are left alone.
func (l *Ledger) Update(ctx context.Context, npcID, otherID string, ev memory.Event) (Delta, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rel, err := l.Get(ctx, npcID, otherID)
	if err != nil {
		return Delta{}, err
	}

	response, ok := trustResponse[ev.Type]
	if !ok {
		response = 0.5
	}
	trustStep := clampAbs(ev.Valence*maxTrustStep*response, maxTrustStep)
	valenceStep := clampAbs(ev.Valence*maxValenceStep, maxValenceStep)

	newTrust := clamp(rel.Trust+trustStep, 0, 1)
	newValence := clamp(rel.Valence+valenceStep, -1, 1)

	d := Delta{Trust: newTrust - rel.Trust, Valence: newValence - rel.Valence}
	rel.Trust = newTrust
	rel.Valence = newValence
	rel.Type = reclassify(rel.Type, newTrust, newValence)
	rel.UpdatedAt = l.now()

	if err := l.backend.Put(ctx, rel); err != nil {
		return Delta{}, fmt.Errorf("relation: update %s->%s: %w", npcID, otherID, err)
	}
	return d, nil
}

// Disclose decides whether npcID reveals a piece of information of the given
// sensitivity to otherID. The threshold sensitivity x (1.5 - trust) shrinks
// as trust rises, so disclosure probability grows monotonically with trust;
// a draw in [0, 1) above the threshold discloses.
//
// Randomness failures surface wrapped in [rng.ErrUnavailable].
func (l *Ledger) Disclose(ctx context.Context, npcID, otherID string, sensitivity float64) (bool, error) {
	rel, err := l.Get(ctx, npcID, otherID)
	if err != nil {
		return false, err
	}

	threshold := sensitivity * (1.5 - rel.Trust)
	draw, err := l.random.Float64()
	if err != nil {
		return false, fmt.Errorf("relation: disclosure draw %s->%s: %w", npcID, otherID, err)
	}
	return draw > threshold, nil
}

// reclassify derives the new type tag after an update. Only automatically
// derived tags participate.
func reclassify(current Type, trust, valence float64) Type {
	switch current {
	case TypeNeutral, TypeAllied, TypeHostile, "":
	default:
		return current
	}
	switch {
	case trust > 0.8 && valence > 0.4:
		return TypeAllied
	case trust < 0.2 && valence < -0.5:
		return TypeHostile
	default:
		return TypeNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func clampAbs(v, bound float64) float64 {
	return clamp(v, -bound, bound)
}
