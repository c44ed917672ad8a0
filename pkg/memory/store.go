package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Default ranking weights. They mirror the decision engine's emphasis:
// salience first, then freshness and topical fit, emotional intensity last.
const (
	defaultWeightImportance = 0.35
	defaultWeightRecency    = 0.25
	defaultWeightRelevance  = 0.25
	defaultWeightEmotion    = 0.15

	defaultSignificanceThreshold = 0.30
	defaultRecencyHalfLife       = 72 * time.Hour
)

// typeWeight reflects how memorable each event type is intrinsically:
// first meetings and strong emotions stick, hearsay mostly does not.
var typeWeight = map[MemoryType]float64{
	TypeEncounter:   0.7,
	TypeDialogue:    0.5,
	TypeAction:      0.6,
	TypeObservation: 0.4,
	TypeRumor:       0.4,
	TypeEmotion:     0.8,
}

// Config tunes the formation gate and retrieval ranking of a [Store].
// The zero value selects the package defaults.
type Config struct {
	// SignificanceThreshold is the minimum significance an event must clear
	// for a memory to form. Default 0.30.
	SignificanceThreshold float64 `yaml:"significance_threshold"`

	// RecencyHalfLife is the age at which a memory's recency factor halves.
	// Default 72h.
	RecencyHalfLife time.Duration `yaml:"recency_half_life"`

	// WeightImportance, WeightRecency, WeightRelevance, and WeightEmotion
	// are the retrieval ranking weights. Defaults: 0.35/0.25/0.25/0.15.
	WeightImportance float64 `yaml:"weight_importance"`
	WeightRecency    float64 `yaml:"weight_recency"`
	WeightRelevance  float64 `yaml:"weight_relevance"`
	WeightEmotion    float64 `yaml:"weight_emotion"`
}

func (c Config) withDefaults() Config {
	if c.SignificanceThreshold == 0 {
		c.SignificanceThreshold = defaultSignificanceThreshold
	}
	if c.RecencyHalfLife == 0 {
		c.RecencyHalfLife = defaultRecencyHalfLife
	}
	if c.WeightImportance == 0 && c.WeightRecency == 0 && c.WeightRelevance == 0 && c.WeightEmotion == 0 {
		c.WeightImportance = defaultWeightImportance
		c.WeightRecency = defaultWeightRecency
		c.WeightRelevance = defaultWeightRelevance
		c.WeightEmotion = defaultWeightEmotion
	}
	return c
}

// Option is a functional option for configuring a [Store].
type Option func(*Store)

// WithConfig overrides the default [Config].
func WithConfig(cfg Config) Option {
	return func(s *Store) { s.cfg = cfg.withDefaults() }
}

// WithRelevance substitutes the relevance measure used during retrieval.
// Default: [TextRelevance].
func WithRelevance(r Relevance) Option {
	return func(s *Store) { s.relevance = r }
}

// WithClock substitutes the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store forms and retrieves episodic memories over a [Backend].
// Safe for concurrent use as long as the backend is.
type Store struct {
	backend   Backend
	relevance Relevance
	cfg       Config
	now       func() time.Time
}

// NewStore returns a [Store] writing through backend, configured with opts.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		relevance: TextRelevance{},
		cfg:       Config{}.withDefaults(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Significance computes the formation score for an event: a blend of its
// emotional intensity, the caller's contextual importance hint, and the
// intrinsic memorability of its type. The result is clamped to [0, 1].
func (s *Store) Significance(ev Event) float64 {
	hint := ev.ImportanceHint
	if hint == 0 {
		hint = 0.5
	}
	tw, ok := typeWeight[ev.Type]
	if !ok {
		tw = 0.5
	}
	sig := 0.4*math.Abs(ev.Valence) + 0.4*hint + 0.2*tw
	return clamp01(sig)
}

// Form evaluates an event against the significance gate and persists a new
// memory when it clears the threshold.
//
// It returns (nil, nil) when the event is insignificant — a normal outcome,
// not an error. Storage failures are returned wrapped in
// [ErrStorageUnavailable] by the backend.
func (s *Store) Form(ctx context.Context, npcID string, ev Event) (*Memory, error) {
	sig := s.Significance(ev)
	if sig < s.cfg.SignificanceThreshold {
		return nil, nil
	}

	m := Memory{
		ID:               uuid.New(),
		NPCID:            npcID,
		Type:             ev.Type,
		SubjectID:        ev.Subject(npcID),
		Description:      ev.Description,
		EmotionalValence: clampSigned(ev.Valence),
		Importance:       sig,
		EventID:          ev.EventID,
		Timestamp:        s.now(),
	}
	if err := s.backend.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("memory: form for npc %q: %w", npcID, err)
	}
	return &m, nil
}

// scored pairs a memory with its composite retrieval score.
type scored struct {
	mem   Memory
	score float64
}

// Retrieve returns up to limit memories owned by npcID, ranked by the
// composite score
//
//	w_i·importance + w_r·recency + w_v·relevance(description, situation) + w_e·|valence|
//
// with exponential half-life recency decay. Ties break toward the more
// recent timestamp, then lexicographically by ID, so the order is fully
// deterministic for identical inputs.
//
// Every returned memory has its recall counter incremented and last-recalled
// timestamp refreshed before Retrieve returns (cognitive reinforcement).
// When the backend fails partway through that bookkeeping, Retrieve returns
// the error and memories already updated keep their increments; recall
// counters are monotonic reinforcement data, so an occasional extra count on
// a retried call is harmless while a silently lost one is not.
// An unknown npcID yields an empty slice, not an error.
func (s *Store) Retrieve(ctx context.Context, npcID, situation string, limit int) ([]Memory, error) {
	if limit <= 0 {
		return []Memory{}, nil
	}

	all, err := s.backend.Query(ctx, npcID, QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("memory: retrieve for npc %q: %w", npcID, err)
	}

	now := s.now()
	ranked := make([]scored, 0, len(all))
	for _, m := range all {
		ranked = append(ranked, scored{mem: m, score: s.score(m, situation, now)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].mem.Timestamp.Equal(ranked[j].mem.Timestamp) {
			return ranked[i].mem.Timestamp.After(ranked[j].mem.Timestamp)
		}
		return ranked[i].mem.ID.String() < ranked[j].mem.ID.String()
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Memory, 0, len(ranked))
	for _, r := range ranked {
		m := r.mem
		m.TimesRecalled++
		m.LastRecalled = now
		if err := s.backend.UpdateRecall(ctx, m.ID, m.TimesRecalled, m.LastRecalled); err != nil {
			return nil, fmt.Errorf("memory: update recall %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// About returns up to limit memories npcID holds about subjectID, newest
// first. Unlike [Store.Retrieve] this is a plain lookup with no recall side
// effect; it feeds the dialogue constraint export.
func (s *Store) About(ctx context.Context, npcID, subjectID string, limit int) ([]Memory, error) {
	ms, err := s.backend.Query(ctx, npcID, QueryOptions{SubjectID: subjectID})
	if err != nil {
		return nil, fmt.Errorf("memory: about %q for npc %q: %w", subjectID, npcID, err)
	}
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].Timestamp.Equal(ms[j].Timestamp) {
			return ms[i].Timestamp.After(ms[j].Timestamp)
		}
		return ms[i].ID.String() < ms[j].ID.String()
	})
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return ms, nil
}

// score computes the composite retrieval score for one memory.
func (s *Store) score(m Memory, situation string, now time.Time) float64 {
	rec := s.recency(m.Timestamp, now)
	rel := s.relevance.Score(m.Description, situation)
	return s.cfg.WeightImportance*m.Importance +
		s.cfg.WeightRecency*rec +
		s.cfg.WeightRelevance*rel +
		s.cfg.WeightEmotion*math.Abs(m.EmotionalValence)
}

// recency maps elapsed time onto (0, 1]: 1 for brand-new memories, halving
// every RecencyHalfLife.
func (s *Store) recency(formed, now time.Time) float64 {
	age := now.Sub(formed)
	if age <= 0 {
		return 1
	}
	return math.Exp2(-age.Hours() / s.cfg.RecencyHalfLife.Hours())
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clampSigned(v float64) float64 {
	return math.Min(1, math.Max(-1, v))
}
