// Package relation tracks pairwise relationship state between an NPC and any
// other entity: a type tag, a trust score, and an emotional valence. The
// ledger biases action scoring and gates information disclosure; it never
// drives behavior directly.
package relation

import "time"

// Type tags the qualitative character of a relationship. The first six drive
// behavior bias during action scoring; economic and political are bookkeeping
// tags used by the wider simulation and carry no bias of their own.
type Type string

const (
	TypeNeutral   Type = "neutral"
	TypeAllied    Type = "allied"
	TypeHostile   Type = "hostile"
	TypeFears     Type = "fears"
	TypeRespects  Type = "respects"
	TypeDistrusts Type = "distrusts"
	TypeEconomic  Type = "economic"
	TypePolitical Type = "political"
)

// IsValid reports whether t is a recognized relationship type.
func (t Type) IsValid() bool {
	switch t {
	case TypeNeutral, TypeAllied, TypeHostile, TypeFears,
		TypeRespects, TypeDistrusts, TypeEconomic, TypePolitical:
		return true
	}
	return false
}

// Relationship is the directed state an NPC holds toward another entity.
//
// Trust lives in [0, 1] and Valence in [-1, 1]; both are clamped on every
// update and never escape their ranges. Relationships are created lazily on
// first interaction and never deleted while either party exists.
type Relationship struct {
	NPCID     string    `db:"npc_id"     json:"npc_id"`
	OtherID   string    `db:"other_id"   json:"other_id"`
	Type      Type      `db:"type"       json:"type"`
	Trust     float64   `db:"trust"      json:"trust"`
	Valence   float64   `db:"valence"    json:"valence"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Neutral returns the default relationship materialized when no stored state
// exists for the pair.
func Neutral(npcID, otherID string) Relationship {
	return Relationship{
		NPCID:   npcID,
		OtherID: otherID,
		Type:    TypeNeutral,
		Trust:   0.5,
		Valence: 0,
	}
}
