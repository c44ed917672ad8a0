// Package persona defines the immutable personality model for Eidolon NPCs.
//
// An [NPCProfile] is created once at NPC spawn — traits and motivations are
// fixed for the NPC's lifetime — and consumed as pure data by the decision
// engine and combat evaluator. Profiles can be authored in campaign YAML
// files ([LoadCampaignFile]) and are validated at construction; out-of-range
// values are rejected with a [*ValidationError], never silently clamped.
package persona

// PersonalityTraits is a Big Five trait vector. Each score is an integer in
// [0, 100]. All five are always present; [Validate] rejects anything else.
type PersonalityTraits struct {
	Openness          int `yaml:"openness" json:"openness"`
	Conscientiousness int `yaml:"conscientiousness" json:"conscientiousness"`
	Extraversion      int `yaml:"extraversion" json:"extraversion"`
	Agreeableness     int `yaml:"agreeableness" json:"agreeableness"`
	Neuroticism       int `yaml:"neuroticism" json:"neuroticism"`
}

// FleeBias is a fractional addend (not a probability) contributed by
// neuroticism to flee-threshold calculations: neuroticism/200.
func (t PersonalityTraits) FleeBias() float64 {
	return float64(t.Neuroticism) / 200
}

// IsHostileLeaning reports whether the NPC defaults to aggression
// (agreeableness below 30).
func (t PersonalityTraits) IsHostileLeaning() bool {
	return t.Agreeableness < 30
}

// IsProtective reports whether the NPC prioritises allies over itself
// (agreeableness above 70).
func (t PersonalityTraits) IsProtective() bool {
	return t.Agreeableness > 70
}

// Motivation is a closed enumeration of the drives an NPC can hold.
// An NPC holds an ordered list of at most [MaxMotivations] distinct
// motivations; list order is priority order.
type Motivation string

const (
	MotivationSurvival  Motivation = "survival"
	MotivationSafety    Motivation = "safety"
	MotivationWealth    Motivation = "wealth"
	MotivationPower     Motivation = "power"
	MotivationComfort   Motivation = "comfort"
	MotivationLove      Motivation = "love"
	MotivationBelonging Motivation = "belonging"
	MotivationRespect   Motivation = "respect"
	MotivationFame      Motivation = "fame"
	MotivationKnowledge Motivation = "knowledge"
	MotivationJustice   Motivation = "justice"
	MotivationDuty      Motivation = "duty"
	MotivationFaith     Motivation = "faith"
	MotivationRevenge   Motivation = "revenge"
	MotivationArtistry  Motivation = "artistry"
	MotivationLegacy    Motivation = "legacy"
)

// MaxMotivations is the maximum number of motivations an NPC may hold.
const MaxMotivations = 3

// IsValid reports whether m is a recognised motivation.
func (m Motivation) IsValid() bool {
	switch m {
	case MotivationSurvival, MotivationSafety, MotivationWealth, MotivationPower,
		MotivationComfort, MotivationLove, MotivationBelonging, MotivationRespect,
		MotivationFame, MotivationKnowledge, MotivationJustice, MotivationDuty,
		MotivationFaith, MotivationRevenge, MotivationArtistry, MotivationLegacy:
		return true
	}
	return false
}

// NPCProfile is the full personality configuration for one NPC.
//
// Traits and Motivations are treated as immutable for the NPC's lifetime.
// Quirks and SpeechStyle may be authored but are never mutated by gameplay.
// The two alignment axes are soft biases in [-100, 100]: LawfulChaotic runs
// lawful (negative) to chaotic (positive), GoodEvil runs good (negative) to
// evil (positive).
type NPCProfile struct {
	// ID is the entity reference of the NPC this profile belongs to.
	ID string `yaml:"id" json:"id"`

	// Name is the NPC's in-world display name.
	Name string `yaml:"name" json:"name"`

	Traits PersonalityTraits `yaml:"traits" json:"traits"`

	// Motivations is the NPC's ranked drive list, highest priority first.
	// At most [MaxMotivations] entries, no duplicates.
	Motivations []Motivation `yaml:"motivations" json:"motivations"`

	// Quirks are short free-form behavioural notes ("hums while working").
	Quirks []string `yaml:"quirks,omitempty" json:"quirks,omitempty"`

	// SpeechStyle is a free label consumed by the dialogue constraint export.
	SpeechStyle string `yaml:"speech_style,omitempty" json:"speech_style,omitempty"`

	LawfulChaotic int `yaml:"lawful_chaotic" json:"lawful_chaotic"`
	GoodEvil      int `yaml:"good_evil" json:"good_evil"`
}

// New validates p and returns it unchanged on success. It is the preferred
// construction path: a profile that passes New satisfies every invariant the
// rest of the system assumes.
func New(p NPCProfile) (NPCProfile, error) {
	if err := Validate(p); err != nil {
		return NPCProfile{}, err
	}
	return p, nil
}
