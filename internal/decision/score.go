package decision

import (
	"math"

	"github.com/thornwick/eidolon/internal/persona"
	"github.com/thornwick/eidolon/pkg/relation"
)

// Component weights of the total score. They sum to 1; risk enters inverted
// so that safer actions score higher.
const (
	weightMotivation   = 0.35
	weightRelationship = 0.25
	weightPersonality  = 0.25
	weightRisk         = 0.15
)

// TotalScore blends the four component scores into the option's total:
//
//	0.35·motivation + 0.25·relationship + 0.25·personality + 0.15·(1 − risk)
func TotalScore(motivation, relationship, personality, risk float64) float64 {
	return weightMotivation*motivation +
		weightRelationship*relationship +
		weightPersonality*personality +
		weightRisk*(1-risk)
}

// rankWeight maps a motivation's rank to its scoring contribution. The top
// motivation carries half the weight an action can earn from alignment.
var rankWeight = [persona.MaxMotivations]float64{0.5, 0.3, 0.2}

// motivationScore rewards actions that advance the NPC's ranked motivations.
// Unaligned actions keep a small baseline so they stay viable; an NPC with
// no motivations scores everything neutrally.
func motivationScore(motivations []persona.Motivation, serves []string) float64 {
	if len(motivations) == 0 {
		return 0.5
	}
	score := 0.15
	for rank, m := range motivations {
		for _, s := range serves {
			if persona.Motivation(s) == m {
				score += rankWeight[rank]
				break
			}
		}
	}
	return clamp01(score)
}

// relationshipScore starts from neutral, shifts with the pair's emotional
// valence, and applies the behavior bias of the relationship type: favored
// tags push up, avoided tags push down. Bias nudges scoring, it never
// hard-filters.
func relationshipScore(rel relation.Relationship, tag string) float64 {
	score := 0.5 + 0.2*rel.Valence

	bias := relation.BiasFor(rel.Type)
	if bias.Favors(tag) {
		score += 0.25
	}
	if bias.Avoids(tag) {
		score -= 0.25
	}
	return clamp01(score)
}

// tagTrait groups action tags by the trait that makes them attractive.
var tagTrait = map[string]func(persona.PersonalityTraits) float64{
	// Cooperative actions appeal to agreeable NPCs.
	"help": agreeable, "defend": agreeable, "share": agreeable,
	"warn": agreeable, "assist": agreeable, "listen": agreeable,
	"appease": agreeable, "comfort": agreeable,

	// Confrontational actions appeal to disagreeable NPCs.
	"attack": disagreeable, "hinder": disagreeable, "confront": disagreeable,
	"challenge": disagreeable, "intimidate": disagreeable, "mock": disagreeable,

	// Self-preserving actions appeal to anxious NPCs.
	"flee": anxious, "hide": anxious, "withhold": anxious, "submit": anxious,

	// Methodical actions appeal to conscientious NPCs.
	"verify": diligent, "watch": diligent, "test": diligent,
	"plan": diligent, "prepare": diligent,

	// Novelty-seeking actions appeal to open NPCs.
	"learn": curious, "investigate": curious, "explore": curious,

	// Social actions appeal to extraverted NPCs.
	"persuade": outgoing, "rally": outgoing, "greet": outgoing, "perform": outgoing,
}

func agreeable(t persona.PersonalityTraits) float64    { return float64(t.Agreeableness) / 100 }
func disagreeable(t persona.PersonalityTraits) float64 { return float64(100-t.Agreeableness) / 100 }
func anxious(t persona.PersonalityTraits) float64      { return float64(t.Neuroticism) / 100 }
func diligent(t persona.PersonalityTraits) float64     { return float64(t.Conscientiousness) / 100 }
func curious(t persona.PersonalityTraits) float64      { return float64(t.Openness) / 100 }
func outgoing(t persona.PersonalityTraits) float64     { return float64(t.Extraversion) / 100 }

// personalityScore rewards options consistent with trait extremes. Tags
// without a trait affinity score neutrally.
func personalityScore(traits persona.PersonalityTraits, tag string) float64 {
	if f, ok := tagTrait[tag]; ok {
		return f(traits)
	}
	return 0.5
}

// riskScore returns the affordance's own risk estimate, falling back to the
// situation's ambient danger level when none was supplied.
func riskScore(aff Affordance, sit Situation) float64 {
	if aff.Risk > 0 {
		return clamp01(aff.Risk)
	}
	return clamp01(sit.DangerLevel)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
