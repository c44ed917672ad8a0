// Package memory implements the episodic memory store for Eidolon NPCs.
//
// Game events flow into [Store.Form], which applies a significance gate:
// insignificant events produce no memory, and that is a normal outcome, not
// an error. Significant events are persisted through a narrow [Backend]
// interface so that storage can be swapped (in-memory [MemStore], Postgres
// via pkg/memory/postgres, …) without touching retrieval logic.
//
// [Store.Retrieve] ranks an NPC's memories by a composite of importance,
// exponential recency decay, deterministic text relevance, and emotional
// intensity, then applies the recall side effect (counter increment and
// last-recalled refresh) before returning — frequently recalled memories are
// the NPC's cognitive reinforcement record.
//
// All implementations must be safe for concurrent use. Writes for the same
// NPC are serialised by the backend (single-writer-per-entity discipline).
package memory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStorageUnavailable wraps persistent storage failures surfaced by a
// [Backend]. The store never swallows these; silent failure would corrupt
// the reproducibility guarantees the decision engine depends on.
var ErrStorageUnavailable = errors.New("memory: storage unavailable")

// MemoryType classifies how a memory was formed.
type MemoryType string

const (
	TypeEncounter   MemoryType = "encounter"
	TypeDialogue    MemoryType = "dialogue"
	TypeAction      MemoryType = "action"
	TypeObservation MemoryType = "observation"
	TypeRumor       MemoryType = "rumor"
	TypeEmotion     MemoryType = "emotion"
)

// IsValid reports whether t is a recognised memory type.
func (t MemoryType) IsValid() bool {
	switch t {
	case TypeEncounter, TypeDialogue, TypeAction, TypeObservation, TypeRumor, TypeEmotion:
		return true
	}
	return false
}

// Memory is one episodic memory owned by an NPC.
//
// A memory is never deleted during normal operation (retention policies are
// external) and is mutated only by recall: TimesRecalled increments and
// LastRecalled refreshes each time [Store.Retrieve] returns it.
type Memory struct {
	// ID is the unique identifier for this memory.
	ID uuid.UUID `json:"id"`

	// NPCID references the owning NPC entity.
	NPCID string `json:"npc_id"`

	Type MemoryType `json:"type"`

	// SubjectID optionally references who or what the memory is about.
	SubjectID string `json:"subject_id,omitempty"`

	// Description is the free-text content of the memory.
	Description string `json:"description"`

	// EmotionalValence is the signed emotional polarity in [-1.0, 1.0].
	EmotionalValence float64 `json:"emotional_valence"`

	// Importance is the salience in [0.0, 1.0]; set to the significance
	// score at formation time.
	Importance float64 `json:"importance"`

	// EventID optionally links the game event this memory was formed from.
	EventID string `json:"event_id,omitempty"`

	// Timestamp is when the memory was formed.
	Timestamp time.Time `json:"timestamp"`

	// TimesRecalled counts how often this memory has been retrieved.
	TimesRecalled int `json:"times_recalled"`

	// LastRecalled is when the memory was last retrieved; zero if never.
	LastRecalled time.Time `json:"last_recalled,omitzero"`
}

// Event is a game event delivered by the external event source. The same
// shape feeds both memory formation and relationship updates.
type Event struct {
	// Type classifies the event using the memory type vocabulary.
	Type MemoryType `json:"type"`

	// Participants lists involved entity references. The first non-owner
	// participant becomes the memory subject when SubjectID is empty.
	Participants []string `json:"participants,omitempty"`

	// SubjectID explicitly names who or what the event is about.
	SubjectID string `json:"subject_id,omitempty"`

	// Description is the free-text account of what happened.
	Description string `json:"description"`

	// Valence is the signed emotional polarity of the event in [-1.0, 1.0].
	Valence float64 `json:"valence"`

	// ImportanceHint is the caller-supplied contextual salience in
	// [0.0, 1.0]. Zero means "no hint"; the significance formula treats it
	// as a neutral 0.5 in that case.
	ImportanceHint float64 `json:"importance_hint,omitempty"`

	// EventID optionally links the world event record.
	EventID string `json:"event_id,omitempty"`
}

// Subject resolves the entity an event is about: the explicit SubjectID if
// set, otherwise the first participant that is not owner.
func (e Event) Subject(owner string) string {
	if e.SubjectID != "" {
		return e.SubjectID
	}
	for _, p := range e.Participants {
		if p != owner {
			return p
		}
	}
	return ""
}
