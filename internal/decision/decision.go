// Package decision implements the action-selection core: it gathers a
// snapshot of personality, relevant memories, and relationship state, builds
// the set of viable action options, scores each against the NPC's
// motivations and temperament, and returns one chosen action with its full
// score breakdown.
//
// A decision is a pure computation over immutable snapshots; the engine
// performs no writes, so decisions for distinct NPCs may run fully in
// parallel.
package decision

import (
	"context"
	"errors"
)

// ErrNoViableAction reports that option generation produced nothing the NPC
// is capable of and aware of. Callers fall back to a wait/observe action
// rather than stalling the turn.
var ErrNoViableAction = errors.New("decision: no viable action")

// Situation is the read-only world snapshot a decision runs against.
// DangerLevel lives in [0, 1].
type Situation struct {
	Location        string   `json:"location"`
	EntitiesPresent []string `json:"entities_present"`
	DangerLevel     float64  `json:"danger_level"`
	CurrentEvents   []string `json:"current_events"`
	PlayerIntent    string   `json:"player_intent"`

	// CounterpartID identifies the entity the NPC is acting toward,
	// commonly the player. Empty when the NPC acts alone.
	CounterpartID string `json:"counterpart_id"`
}

// ContextProvider supplies the situational snapshot for an NPC. Implemented
// by the world simulation outside this core.
type ContextProvider interface {
	GetContext(ctx context.Context, npcID string) (Situation, error)
}

// Affordance is a candidate action template supplied by the world layer:
// something the NPC is physically capable of in this situation. Whether the
// NPC is aware enough to consider it is decided during generation.
type Affordance struct {
	// Tag categorizes the action (help, attack, flee, ...) and drives
	// relationship bias and personality affinity.
	Tag string

	// TargetID optionally names the entity the action is directed at.
	TargetID string

	// Description is human-readable, for logs and narrative downstream.
	Description string

	// RequiredFact gates awareness: the option is only considered when this
	// phrase appears in the NPC's retrieved memories or current perception.
	// Empty means no knowledge is required.
	RequiredFact string

	// Risk is the estimated danger of the action in [0, 1]. Zero means
	// "unknown", in which case the situation's danger level stands in.
	Risk float64

	// Serves lists the motivations this action advances.
	Serves []string
}

// ActionOption is a scored candidate action. All component scores live in
// [0, 1]; TotalScore is their fixed-weight blend (see [TotalScore]).
type ActionOption struct {
	Tag         string `json:"tag"`
	TargetID    string `json:"target_id,omitempty"`
	Description string `json:"description"`

	MotivationScore   float64 `json:"motivation_score"`
	RelationshipScore float64 `json:"relationship_score"`
	PersonalityScore  float64 `json:"personality_score"`
	RiskScore         float64 `json:"risk_score"`
	Total             float64 `json:"total_score"`
}

// Decision is the engine's output: the chosen option plus every option that
// was considered, ranked, so callers can explain or test the choice.
type Decision struct {
	NPCID      string         `json:"npc_id"`
	Chosen     ActionOption   `json:"chosen"`
	Considered []ActionOption `json:"considered"`
}

// WaitAction is the conventional fallback when Decide reports
// [ErrNoViableAction]: the NPC holds and observes.
func WaitAction() ActionOption {
	return ActionOption{
		Tag:         "wait",
		Description: "waits and observes",
	}
}
