// Package dialogue exports the constraint envelope a downstream narrative
// layer needs to voice an NPC: tone, trust, urgency, and what to bring up or
// keep quiet. This core never calls the narrative layer itself.
package dialogue

import (
	"context"
	"fmt"

	"github.com/thornwick/eidolon/internal/persona"
	"github.com/thornwick/eidolon/pkg/memory"
	"github.com/thornwick/eidolon/pkg/relation"
)

// Attitude is the NPC's overall disposition toward the conversation partner.
type Attitude string

const (
	AttitudeFriendly Attitude = "friendly"
	AttitudeNeutral  Attitude = "neutral"
	AttitudeHostile  Attitude = "hostile"
)

// Urgency grades how pressed the NPC feels during the exchange.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Secret is a piece of guarded knowledge the NPC holds. Whether it may come
// up in conversation is decided by a disclosure draw against the pair's
// trust.
type Secret struct {
	Topic       string  `json:"topic"`
	Sensitivity float64 `json:"sensitivity"`
}

// Constraints is the envelope handed to the narrative layer.
type Constraints struct {
	SpeechStyle     string   `json:"speech_style"`
	Attitude        Attitude `json:"attitude"`
	TrustLevel      float64  `json:"trust_level"`
	EmotionalState  string   `json:"emotional_state"`
	Urgency         Urgency  `json:"urgency"`
	TopicsToMention []string `json:"topics_to_mention"`
	TopicsToAvoid   []string `json:"topics_to_avoid"`
}

// topicMemories bounds how many remembered episodes feed the mention list.
const topicMemories = 3

// Builder assembles [Constraints] from the NPC's profile, memories, and
// relationship state.
type Builder struct {
	memories *memory.Store
	ledger   *relation.Ledger
}

// NewBuilder returns a [Builder] over the given stores.
func NewBuilder(memories *memory.Store, ledger *relation.Ledger) *Builder {
	return &Builder{memories: memories, ledger: ledger}
}

// BuildConstraints produces the dialogue envelope for a conversation between
// the NPC and otherID. emotionalState is the caller's description of the
// NPC's current state ("calm", "afraid", ...); empty defaults to "calm".
//
// Secrets that fail their disclosure draw land in TopicsToAvoid, alongside
// the behavior tags the relationship type avoids.
func (b *Builder) BuildConstraints(ctx context.Context, profile persona.NPCProfile, otherID, emotionalState string, secrets []Secret) (Constraints, error) {
	rel, err := b.ledger.Get(ctx, profile.ID, otherID)
	if err != nil {
		return Constraints{}, fmt.Errorf("dialogue: constraints for npc %q: %w", profile.ID, err)
	}

	if emotionalState == "" {
		emotionalState = "calm"
	}
	style := profile.SpeechStyle
	if style == "" {
		style = "neutral"
	}

	c := Constraints{
		SpeechStyle:    style,
		Attitude:       attitude(rel, profile.Traits),
		TrustLevel:     rel.Trust,
		EmotionalState: emotionalState,
	}
	c.Urgency = urgency(emotionalState, c.Attitude)

	// What to bring up: recent episodes involving the partner, then quirks
	// as personality color.
	remembered, err := b.memories.About(ctx, profile.ID, otherID, topicMemories)
	if err != nil {
		return Constraints{}, fmt.Errorf("dialogue: topics for npc %q: %w", profile.ID, err)
	}
	for _, m := range remembered {
		c.TopicsToMention = append(c.TopicsToMention, m.Description)
	}
	c.TopicsToMention = append(c.TopicsToMention, profile.Quirks...)

	// What to keep quiet: relationship-avoided behaviors and any secret that
	// fails its disclosure draw.
	c.TopicsToAvoid = append(c.TopicsToAvoid, relation.BiasFor(rel.Type).Avoided...)
	for _, s := range secrets {
		disclosed, err := b.ledger.Disclose(ctx, profile.ID, otherID, s.Sensitivity)
		if err != nil {
			return Constraints{}, fmt.Errorf("dialogue: secret %q for npc %q: %w", s.Topic, profile.ID, err)
		}
		if !disclosed {
			c.TopicsToAvoid = append(c.TopicsToAvoid, s.Topic)
		}
	}
	return c, nil
}

// attitude derives disposition from the relationship first and personality
// second: strong trust or distrust decides outright, otherwise agreeableness
// tips the scale.
func attitude(rel relation.Relationship, traits persona.PersonalityTraits) Attitude {
	switch {
	case rel.Trust > 0.8:
		return AttitudeFriendly
	case rel.Trust < 0.2:
		return AttitudeHostile
	}
	switch {
	case traits.Agreeableness > 60:
		return AttitudeFriendly
	case traits.Agreeableness < 40:
		return AttitudeHostile
	}
	return AttitudeNeutral
}

// urgency grades the exchange from the NPC's emotional state, floored at
// medium when the NPC is hostile.
func urgency(emotionalState string, att Attitude) Urgency {
	u := UrgencyLow
	switch emotionalState {
	case "afraid", "panicked", "angry", "desperate":
		u = UrgencyHigh
	case "anxious", "agitated", "suspicious":
		u = UrgencyMedium
	}
	if att == AttitudeHostile && u == UrgencyLow {
		u = UrgencyMedium
	}
	return u
}
