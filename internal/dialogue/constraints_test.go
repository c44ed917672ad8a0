package dialogue_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/thornwick/eidolon/internal/dialogue"
	"github.com/thornwick/eidolon/internal/persona"
	"github.com/thornwick/eidolon/pkg/memory"
	"github.com/thornwick/eidolon/pkg/relation"
	"github.com/thornwick/eidolon/pkg/rng"
	rngmock "github.com/thornwick/eidolon/pkg/rng/mock"
)

func testProfile(t *testing.T, agreeableness int) persona.NPCProfile {
	t.Helper()
	p, err := persona.New(persona.NPCProfile{
		ID:   "npc-1",
		Name: "Mirela",
		Traits: persona.PersonalityTraits{
			Openness:          50,
			Conscientiousness: 50,
			Extraversion:      50,
			Agreeableness:     agreeableness,
			Neuroticism:       50,
		},
		SpeechStyle: "warm but cautious",
		Quirks:      []string{"polishes glasses when nervous"},
	})
	if err != nil {
		t.Fatalf("persona.New: %v", err)
	}
	return p
}

func fixtures(t *testing.T, random rng.Source) (*dialogue.Builder, *memory.MemStore, *relation.MemStore) {
	t.Helper()
	memBackend := memory.NewMemStore()
	relBackend := relation.NewMemStore()
	builder := dialogue.NewBuilder(
		memory.NewStore(memBackend),
		relation.NewLedger(relBackend, random),
	)
	return builder, memBackend, relBackend
}

func TestAttitudeDerivation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		name          string
		trust         float64
		agreeableness int
		want          dialogue.Attitude
	}{
		{"high trust wins", 0.9, 20, dialogue.AttitudeFriendly},
		{"low trust wins", 0.1, 80, dialogue.AttitudeHostile},
		{"neutral trust defers to high agreeableness", 0.5, 70, dialogue.AttitudeFriendly},
		{"neutral trust defers to low agreeableness", 0.5, 30, dialogue.AttitudeHostile},
		{"everything middling is neutral", 0.5, 50, dialogue.AttitudeNeutral},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			builder, _, relBackend := fixtures(t, rng.NewSeeded(1))

			rel := relation.Neutral("npc-1", "player")
			rel.Trust = tc.trust
			if err := relBackend.Put(ctx, rel); err != nil {
				t.Fatalf("Put: %v", err)
			}

			c, err := builder.BuildConstraints(ctx, testProfile(t, tc.agreeableness), "player", "", nil)
			if err != nil {
				t.Fatalf("BuildConstraints: %v", err)
			}
			if c.Attitude != tc.want {
				t.Fatalf("attitude = %q, want %q", c.Attitude, tc.want)
			}
		})
	}
}

func TestConstraintsEnvelope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	builder, memBackend, relBackend := fixtures(t, rng.NewSeeded(1))

	rel := relation.Neutral("npc-1", "player")
	rel.Type = relation.TypeDistrusts
	rel.Trust = 0.4
	if err := relBackend.Put(ctx, rel); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := memBackend.Save(ctx, memory.Memory{
		ID:          uuid.New(),
		NPCID:       "npc-1",
		SubjectID:   "player",
		Description: "the stranger paid for a round of drinks",
		Importance:  0.6,
		Timestamp:   time.Now(),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c, err := builder.BuildConstraints(ctx, testProfile(t, 50), "player", "suspicious", nil)
	if err != nil {
		t.Fatalf("BuildConstraints: %v", err)
	}

	if c.SpeechStyle != "warm but cautious" {
		t.Fatalf("speech_style = %q", c.SpeechStyle)
	}
	if c.TrustLevel != 0.4 {
		t.Fatalf("trust_level = %v, want 0.4", c.TrustLevel)
	}
	if c.EmotionalState != "suspicious" {
		t.Fatalf("emotional_state = %q", c.EmotionalState)
	}
	if c.Urgency != dialogue.UrgencyMedium {
		t.Fatalf("urgency = %q, want medium", c.Urgency)
	}
	if !slices.Contains(c.TopicsToMention, "the stranger paid for a round of drinks") {
		t.Fatalf("topics_to_mention missing remembered episode: %v", c.TopicsToMention)
	}
	if !slices.Contains(c.TopicsToMention, "polishes glasses when nervous") {
		t.Fatalf("topics_to_mention missing quirk: %v", c.TopicsToMention)
	}
	if !slices.Contains(c.TopicsToAvoid, "share_secrets") {
		t.Fatalf("topics_to_avoid missing distrust bias: %v", c.TopicsToAvoid)
	}
}

func TestSecretsGatedByDisclosure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	secrets := []dialogue.Secret{
		{Topic: "the smuggling tunnel", Sensitivity: 0.9},
		{Topic: "the festival date", Sensitivity: 0.1},
	}

	t.Run("low trust withholds sensitive secrets", func(t *testing.T) {
		t.Parallel()
		builder, _, relBackend := fixtures(t, rng.NewSeeded(11))

		rel := relation.Neutral("npc-1", "player")
		rel.Trust = 0.1 // sensitive secret threshold 0.9 x 1.4 = 1.26, never disclosed
		if err := relBackend.Put(ctx, rel); err != nil {
			t.Fatalf("Put: %v", err)
		}

		c, err := builder.BuildConstraints(ctx, testProfile(t, 50), "player", "", secrets)
		if err != nil {
			t.Fatalf("BuildConstraints: %v", err)
		}
		if !slices.Contains(c.TopicsToAvoid, "the smuggling tunnel") {
			t.Fatalf("sensitive secret must stay avoided at low trust: %v", c.TopicsToAvoid)
		}
	})

	t.Run("scripted draws decide each secret", func(t *testing.T) {
		t.Parallel()
		// Thresholds at trust 0.5: 0.9 x 1.0 = 0.9 and 0.1 x 1.0 = 0.1.
		// First draw 0.5 fails the sensitive secret, second draw 0.5 clears
		// the mundane one.
		builder, _, _ := fixtures(t, rngmock.NewScripted(0.5, 0.5))

		c, err := builder.BuildConstraints(ctx, testProfile(t, 50), "player", "", secrets)
		if err != nil {
			t.Fatalf("BuildConstraints: %v", err)
		}
		if !slices.Contains(c.TopicsToAvoid, "the smuggling tunnel") {
			t.Fatalf("failed draw must withhold the secret: %v", c.TopicsToAvoid)
		}
		if slices.Contains(c.TopicsToAvoid, "the festival date") {
			t.Fatalf("cleared draw must not avoid the topic: %v", c.TopicsToAvoid)
		}
	})
}

func TestUsageAccumulator(t *testing.T) {
	t.Parallel()

	var u dialogue.Usage
	u.Add(100, 40)
	u.Add(dialogue.EstimateTokens("a short reply"), 0)

	if u.PromptTokens != 100+dialogue.EstimateTokens("a short reply") {
		t.Fatalf("prompt tokens = %d", u.PromptTokens)
	}
	if u.TotalTokens != u.PromptTokens+u.CompletionTokens {
		t.Fatalf("total %d != prompt %d + completion %d", u.TotalTokens, u.PromptTokens, u.CompletionTokens)
	}

	var merged dialogue.Usage
	merged.Merge(u)
	merged.Merge(u)
	if merged.TotalTokens != 2*u.TotalTokens {
		t.Fatalf("merge total = %d, want %d", merged.TotalTokens, 2*u.TotalTokens)
	}

	if dialogue.EstimateTokens("") != 0 {
		t.Fatal("empty text must estimate zero tokens")
	}
	if dialogue.EstimateTokens("word") < 1 {
		t.Fatal("non-empty text must estimate at least one token")
	}
}
