package decision

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/thornwick/eidolon/internal/observe"
	"github.com/thornwick/eidolon/internal/persona"
	"github.com/thornwick/eidolon/pkg/memory"
	"github.com/thornwick/eidolon/pkg/relation"
	"github.com/thornwick/eidolon/pkg/rng"
)

// defaultTopK bounds how many memories feed one decision.
const defaultTopK = 5

// perturbSpread caps the selection perturbation at full neuroticism. The
// draw is centered, so a maximally anxious NPC shifts a total by at most
// ±0.05 — enough to reorder near-ties, never enough to flip a clear winner.
const perturbSpread = 0.1

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the engine's structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the metrics sink. Default: none.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTopK overrides how many memories are retrieved per decision.
func WithTopK(k int) Option {
	return func(e *Engine) { e.topK = k }
}

// Engine runs the GATHER, GENERATE, SCORE, SELECT pipeline. Safe for
// concurrent use across NPCs; it holds no per-decision state.
type Engine struct {
	memories  *memory.Store
	relations *relation.Ledger
	world     ContextProvider
	random    rng.Source

	log     *slog.Logger
	metrics *observe.Metrics
	topK    int
}

// NewEngine wires an [Engine] over its collaborators. random must be the
// same seedable source used elsewhere so full runs are reproducible.
func NewEngine(memories *memory.Store, relations *relation.Ledger, world ContextProvider, random rng.Source, opts ...Option) *Engine {
	e := &Engine{
		memories:  memories,
		relations: relations,
		world:     world,
		random:    random,
		log:       slog.Default(),
		topK:      defaultTopK,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Decide selects one action for the NPC from the supplied affordances.
//
// Pipeline: gather the situational snapshot, relevant memories, and the
// relationship to the counterpart; generate the options the NPC is aware of;
// score each; select the best after a neuroticism-scaled perturbation.
// Returns [ErrNoViableAction] when nothing survives generation.
func (e *Engine) Decide(ctx context.Context, profile persona.NPCProfile, affordances []Affordance) (Decision, error) {
	start := time.Now()

	// Gather.
	sit, err := e.world.GetContext(ctx, profile.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("decision: context for npc %q: %w", profile.ID, err)
	}

	recalled, err := e.memories.Retrieve(ctx, profile.ID, situationText(sit), e.topK)
	if err != nil {
		return Decision{}, fmt.Errorf("decision: memories for npc %q: %w", profile.ID, err)
	}
	if e.metrics != nil && len(recalled) > 0 {
		e.metrics.MemoriesRecalled.Add(ctx, int64(len(recalled)), metric.WithAttributes(observe.Attr("npc_id", profile.ID)))
	}

	rel := relation.Neutral(profile.ID, sit.CounterpartID)
	if sit.CounterpartID != "" {
		rel, err = e.relations.Get(ctx, profile.ID, sit.CounterpartID)
		if err != nil {
			return Decision{}, fmt.Errorf("decision: relationship for npc %q: %w", profile.ID, err)
		}
	}

	// Generate.
	options := make([]ActionOption, 0, len(affordances))
	for _, aff := range affordances {
		if !aware(aff, recalled, sit) {
			continue
		}
		options = append(options, e.score(profile, rel, aff, sit))
	}
	if len(options) == 0 {
		if e.metrics != nil {
			e.metrics.RecordDecision(ctx, profile.ID, "", "no_viable_action")
		}
		return Decision{}, fmt.Errorf("decision: npc %q: %w", profile.ID, ErrNoViableAction)
	}

	// Deterministic ranking before perturbation so the random draws are
	// consumed in a stable order.
	sort.Slice(options, func(i, j int) bool {
		if options[i].Total != options[j].Total {
			return options[i].Total > options[j].Total
		}
		return options[i].Tag < options[j].Tag
	})

	// Select.
	chosenIdx := 0
	bestPerturbed := -1.0
	erraticism := float64(profile.Traits.Neuroticism) / 100
	for i, opt := range options {
		draw, err := e.random.Float64()
		if err != nil {
			return Decision{}, fmt.Errorf("decision: selection draw for npc %q: %w", profile.ID, err)
		}
		perturbed := opt.Total + (draw-0.5)*erraticism*perturbSpread
		if perturbed > bestPerturbed {
			bestPerturbed = perturbed
			chosenIdx = i
		}
	}
	chosen := options[chosenIdx]

	e.log.DebugContext(ctx, "decision made",
		"npc_id", profile.ID,
		"action", chosen.Tag,
		"target", chosen.TargetID,
		"total", chosen.Total,
		"motivation", chosen.MotivationScore,
		"relationship", chosen.RelationshipScore,
		"personality", chosen.PersonalityScore,
		"risk", chosen.RiskScore,
		"options", len(options),
	)
	if e.metrics != nil {
		e.metrics.DecisionDuration.Record(ctx, time.Since(start).Seconds())
		e.metrics.RecordDecision(ctx, profile.ID, chosen.Tag, "ok")
	}

	return Decision{NPCID: profile.ID, Chosen: chosen, Considered: options}, nil
}

// score computes all four components and the total for one affordance.
func (e *Engine) score(profile persona.NPCProfile, rel relation.Relationship, aff Affordance, sit Situation) ActionOption {
	opt := ActionOption{
		Tag:         aff.Tag,
		TargetID:    aff.TargetID,
		Description: aff.Description,

		MotivationScore:   motivationScore(profile.Motivations, aff.Serves),
		RelationshipScore: relationshipScore(rel, aff.Tag),
		PersonalityScore:  personalityScore(profile.Traits, aff.Tag),
		RiskScore:         riskScore(aff, sit),
	}
	opt.Total = TotalScore(opt.MotivationScore, opt.RelationshipScore, opt.PersonalityScore, opt.RiskScore)
	return opt
}

// aware reports whether the NPC knows enough to consider the affordance: the
// required fact must appear in a recalled memory or in current perception.
func aware(aff Affordance, recalled []memory.Memory, sit Situation) bool {
	if aff.RequiredFact == "" {
		return true
	}
	fact := strings.ToLower(aff.RequiredFact)

	for _, m := range recalled {
		if strings.Contains(strings.ToLower(m.Description), fact) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(situationText(sit)), fact)
}

// situationText flattens the snapshot into the retrieval context string.
func situationText(sit Situation) string {
	parts := make([]string, 0, 3+len(sit.EntitiesPresent)+len(sit.CurrentEvents))
	if sit.Location != "" {
		parts = append(parts, sit.Location)
	}
	parts = append(parts, sit.EntitiesPresent...)
	parts = append(parts, sit.CurrentEvents...)
	if sit.PlayerIntent != "" {
		parts = append(parts, sit.PlayerIntent)
	}
	return strings.Join(parts, " ")
}
