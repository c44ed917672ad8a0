// Package combat classifies an NPC's combat posture from its personality and
// a snapshot of the fight. Classification is a pure function recomputed every
// decision point; it performs no I/O and never blocks.
package combat

import "github.com/thornwick/eidolon/internal/persona"

// State is the combat posture an NPC adopts for the current turn.
type State string

const (
	StateAggressive   State = "AGGRESSIVE"
	StateDefensive    State = "DEFENSIVE"
	StateTactical     State = "TACTICAL"
	StateSupportive   State = "SUPPORTIVE"
	StateFleeing      State = "FLEEING"
	StateSurrendering State = "SURRENDERING"
)

// Evaluation is the combat snapshot the combat resolver constructs fresh at
// each decision point; it is never persisted. All fractional fields live in
// [0, 1]. The classification rules read only a subset; the remaining fields
// are carried for the resolver's own heuristics and for logging.
type Evaluation struct {
	HPPercentage         float64 `json:"hp_percentage"`
	ResourcesRemaining   float64 `json:"resources_remaining"`
	EscapeRoutes         int     `json:"escape_routes"`
	EnemiesCount         int     `json:"enemies_count"`
	StrongestEnemyThreat float64 `json:"strongest_enemy_threat"`
	TotalEnemyThreat     float64 `json:"total_enemy_threat"`
	AlliesCount          int     `json:"allies_count"`
	AllyHealthAverage    float64 `json:"ally_health_average"`
}

// Classify maps personality and the current evaluation onto a combat state.
// Rules apply in order; the first match wins:
//
//  1. Low agreeableness (< 30) fights regardless of condition.
//  2. High agreeableness (> 70) with allies present supports them.
//  3. Below the flee threshold 0.25 + neuroticism/200, flee if an escape
//     route exists, surrender otherwise.
//  4. Everything else fights tactically.
//
// The classification is stateless; near a threshold it can flap between
// states across consecutive turns. [ClassifyStable] adds hysteresis for
// callers that carry the previous state.
func Classify(traits persona.PersonalityTraits, eval Evaluation) State {
	if traits.IsHostileLeaning() {
		return StateAggressive
	}
	if eval.AlliesCount > 0 && traits.IsProtective() {
		return StateSupportive
	}
	if eval.HPPercentage < fleeThreshold(traits) {
		if eval.EscapeRoutes > 0 {
			return StateFleeing
		}
		return StateSurrendering
	}
	return StateTactical
}

// Hysteresis band applied when leaving a desperate state. An NPC that started
// fleeing keeps fleeing until its hp recovers meaningfully past the
// threshold, instead of flapping on every fractional hp change.
const recoverBand = 0.10

// ClassifyStable is [Classify] with hysteresis: when prev is FLEEING or
// SURRENDERING and hp has not recovered past the flee threshold plus a
// recovery band, the previous state is kept. All other transitions follow
// the stateless rules, so aggression and support overrides still apply
// immediately.
func ClassifyStable(traits persona.PersonalityTraits, eval Evaluation, prev State) State {
	next := Classify(traits, eval)

	if prev != StateFleeing && prev != StateSurrendering {
		return next
	}
	if next == StateAggressive || next == StateSupportive {
		return next
	}
	if eval.HPPercentage < fleeThreshold(traits)+recoverBand {
		// Still in the recovery band: no escape route downgrades fleeing
		// to surrendering, but never the reverse.
		if prev == StateFleeing && eval.EscapeRoutes == 0 {
			return StateSurrendering
		}
		return prev
	}
	return next
}

// ShouldFlee reports whether the NPC should disengage: badly hurt, under real
// threat, and with a way out. Independent of [Classify].
func ShouldFlee(eval Evaluation) bool {
	return eval.HPPercentage < 0.25 && eval.TotalEnemyThreat > 0.5 && eval.EscapeRoutes > 0
}

// ShouldSurrender reports whether the NPC should give up: near death,
// cornered, and alone.
func ShouldSurrender(eval Evaluation) bool {
	return eval.HPPercentage < 0.1 && eval.EscapeRoutes == 0 && eval.AlliesCount == 0
}

func fleeThreshold(traits persona.PersonalityTraits) float64 {
	return 0.25 + traits.FleeBias()
}
