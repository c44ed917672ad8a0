package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/thornwick/eidolon/pkg/memory"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*memory.Store, *memory.MemStore) {
	t.Helper()
	backend := memory.NewMemStore()
	store := memory.NewStore(backend, memory.WithClock(func() time.Time { return fixedNow }))
	return store, backend
}

func TestFormSignificanceGate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)

	t.Run("insignificant event forms no memory", func(t *testing.T) {
		t.Parallel()
		// |valence|=0, hint 0.1, observation: 0.4·0 + 0.4·0.1 + 0.2·0.4 = 0.12 < 0.30.
		ev := memory.Event{
			Type:           memory.TypeObservation,
			Description:    "a cart rolled past",
			Valence:        0,
			ImportanceHint: 0.1,
		}
		m, err := store.Form(ctx, "npc-1", ev)
		if err != nil {
			t.Fatalf("Form: unexpected error: %v", err)
		}
		if m != nil {
			t.Fatalf("Form: expected no memory for insignificant event, got %+v", m)
		}
	})

	t.Run("significant event persists with importance = significance", func(t *testing.T) {
		t.Parallel()
		ev := memory.Event{
			Type:           memory.TypeEncounter,
			Participants:   []string{"npc-1", "player"},
			Description:    "first meeting with the stranger",
			Valence:        0.3,
			ImportanceHint: 0.7,
		}
		m, err := store.Form(ctx, "npc-1", ev)
		if err != nil {
			t.Fatalf("Form: unexpected error: %v", err)
		}
		if m == nil {
			t.Fatal("Form: expected a memory, got nil")
		}
		want := store.Significance(ev)
		if m.Importance != want {
			t.Fatalf("Form: importance = %v, want significance %v", m.Importance, want)
		}
		if m.SubjectID != "player" {
			t.Fatalf("Form: subject = %q, want first non-owner participant", m.SubjectID)
		}
		if m.TimesRecalled != 0 {
			t.Fatalf("Form: new memory must start with 0 recalls, got %d", m.TimesRecalled)
		}
	})
}

func TestRetrieveRanking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	save := func(t *testing.T, backend *memory.MemStore, m memory.Memory) memory.Memory {
		t.Helper()
		if m.ID == (uuid.UUID{}) {
			m.ID = uuid.New()
		}
		if err := backend.Save(ctx, m); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return m
	}

	t.Run("higher importance ranks first", func(t *testing.T) {
		t.Parallel()
		store, backend := newTestStore(t)
		ts := fixedNow.Add(-time.Hour)
		low := save(t, backend, memory.Memory{
			NPCID: "npc-1", Type: memory.TypeDialogue,
			Description: "talked about the harvest", Importance: 0.2, Timestamp: ts,
		})
		high := save(t, backend, memory.Memory{
			NPCID: "npc-1", Type: memory.TypeDialogue,
			Description: "talked about the harvest", Importance: 0.9, Timestamp: ts,
		})

		got, err := store.Retrieve(ctx, "npc-1", "the harvest", 2)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Retrieve: expected 2 memories, got %d", len(got))
		}
		if got[0].ID != high.ID || got[1].ID != low.ID {
			t.Fatalf("Retrieve: expected importance 0.9 before 0.2, got %v then %v",
				got[0].Importance, got[1].Importance)
		}
	})

	t.Run("recent memory outranks old one", func(t *testing.T) {
		t.Parallel()
		store, backend := newTestStore(t)
		old := save(t, backend, memory.Memory{
			NPCID: "npc-1", Description: "same words", Importance: 0.5,
			Timestamp: fixedNow.Add(-30 * 24 * time.Hour),
		})
		fresh := save(t, backend, memory.Memory{
			NPCID: "npc-1", Description: "same words", Importance: 0.5,
			Timestamp: fixedNow.Add(-time.Minute),
		})

		got, err := store.Retrieve(ctx, "npc-1", "same words", 2)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if got[0].ID != fresh.ID || got[1].ID != old.ID {
			t.Fatal("Retrieve: expected the fresh memory first")
		}
	})

	t.Run("topical overlap outranks unrelated text", func(t *testing.T) {
		t.Parallel()
		store, backend := newTestStore(t)
		ts := fixedNow.Add(-time.Hour)
		unrelated := save(t, backend, memory.Memory{
			NPCID: "npc-1", Description: "bought turnips at the market", Importance: 0.5, Timestamp: ts,
		})
		related := save(t, backend, memory.Memory{
			NPCID: "npc-1", Description: "bandits ambushed the caravan", Importance: 0.5, Timestamp: ts,
		})

		got, err := store.Retrieve(ctx, "npc-1", "bandits near the caravan road", 2)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if got[0].ID != related.ID || got[1].ID != unrelated.ID {
			t.Fatal("Retrieve: expected the topically related memory first")
		}
	})

	t.Run("limit is respected", func(t *testing.T) {
		t.Parallel()
		store, backend := newTestStore(t)
		for i := 0; i < 10; i++ {
			save(t, backend, memory.Memory{
				NPCID: "npc-1", Description: "event", Importance: 0.5,
				Timestamp: fixedNow.Add(-time.Duration(i) * time.Hour),
			})
		}
		got, err := store.Retrieve(ctx, "npc-1", "event", 3)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Retrieve: expected 3 memories, got %d", len(got))
		}
	})

	t.Run("order is deterministic across repeated calls", func(t *testing.T) {
		t.Parallel()
		store, backend := newTestStore(t)
		ts := fixedNow.Add(-time.Hour)
		for i := 0; i < 8; i++ {
			// Identical scores: ranking must fall back to ID order.
			save(t, backend, memory.Memory{
				NPCID: "npc-1", Description: "identical", Importance: 0.5, Timestamp: ts,
			})
		}

		first, err := store.Retrieve(ctx, "npc-1", "identical", 5)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		second, err := store.Retrieve(ctx, "npc-1", "identical", 5)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("position %d: order changed between calls: %s vs %s",
					i, first[i].ID, second[i].ID)
			}
		}
	})

	t.Run("unknown npc returns empty list", func(t *testing.T) {
		t.Parallel()
		store, _ := newTestStore(t)
		got, err := store.Retrieve(ctx, "npc-unknown", "anything", 5)
		if err != nil {
			t.Fatalf("Retrieve: unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("Retrieve: expected empty list, got %d", len(got))
		}
	})
}

func TestRetrieveRecallSideEffect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, backend := newTestStore(t)

	m := memory.Memory{
		ID: uuid.New(), NPCID: "npc-1", Description: "the duel at dawn",
		Importance: 0.8, Timestamp: fixedNow.Add(-time.Hour),
	}
	if err := backend.Save(ctx, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Retrieve(ctx, "npc-1", "duel", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got[0].TimesRecalled != 1 {
		t.Fatalf("returned memory: times_recalled = %d, want 1", got[0].TimesRecalled)
	}
	if !got[0].LastRecalled.Equal(fixedNow) {
		t.Fatalf("returned memory: last_recalled = %v, want %v", got[0].LastRecalled, fixedNow)
	}

	// The side effect must be persisted, not just reflected in the copy.
	stored, err := backend.Query(ctx, "npc-1", memory.QueryOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if stored[0].TimesRecalled != 1 {
		t.Fatalf("stored memory: times_recalled = %d, want 1", stored[0].TimesRecalled)
	}

	// A second retrieval increments again.
	got, err = store.Retrieve(ctx, "npc-1", "duel", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got[0].TimesRecalled != 2 {
		t.Fatalf("second retrieval: times_recalled = %d, want 2", got[0].TimesRecalled)
	}
}

// recallFailBackend delegates to a MemStore but fails UpdateRecall from the
// nth call onward.
type recallFailBackend struct {
	*memory.MemStore
	failFrom int
	calls    int
}

func (b *recallFailBackend) UpdateRecall(ctx context.Context, id uuid.UUID, timesRecalled int, lastRecalled time.Time) error {
	b.calls++
	if b.calls >= b.failFrom {
		return memory.ErrStorageUnavailable
	}
	return b.MemStore.UpdateRecall(ctx, id, timesRecalled, lastRecalled)
}

func TestRetrieveRecallFailureSurfaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &recallFailBackend{MemStore: memory.NewMemStore(), failFrom: 2}
	store := memory.NewStore(backend, memory.WithClock(func() time.Time { return fixedNow }))

	first := memory.Memory{
		ID: uuid.New(), NPCID: "npc-1", Description: "event",
		Importance: 0.9, Timestamp: fixedNow.Add(-time.Hour),
	}
	second := memory.Memory{
		ID: uuid.New(), NPCID: "npc-1", Description: "event",
		Importance: 0.2, Timestamp: fixedNow.Add(-time.Hour),
	}
	for _, m := range []memory.Memory{first, second} {
		if err := backend.Save(ctx, m); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	_, err := store.Retrieve(ctx, "npc-1", "event", 2)
	if !errors.Is(err, memory.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	// Bookkeeping already applied before the failure stays applied.
	stored, qerr := backend.MemStore.Query(ctx, "npc-1", memory.QueryOptions{})
	if qerr != nil {
		t.Fatalf("Query: %v", qerr)
	}
	recalls := map[uuid.UUID]int{}
	for _, m := range stored {
		recalls[m.ID] = m.TimesRecalled
	}
	if recalls[first.ID] != 1 {
		t.Fatalf("first memory: times_recalled = %d, want 1 (applied before failure)", recalls[first.ID])
	}
	if recalls[second.ID] != 0 {
		t.Fatalf("second memory: times_recalled = %d, want 0 (failed update)", recalls[second.ID])
	}
}

func TestAbout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, backend := newTestStore(t)

	for i, subject := range []string{"player", "player", "npc-9"} {
		m := memory.Memory{
			ID: uuid.New(), NPCID: "npc-1", SubjectID: subject,
			Description: "note", Importance: 0.5,
			Timestamp: fixedNow.Add(-time.Duration(i) * time.Hour),
		}
		if err := backend.Save(ctx, m); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.About(ctx, "npc-1", "player", 10)
	if err != nil {
		t.Fatalf("About: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("About: expected 2 memories about player, got %d", len(got))
	}
	if got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatal("About: expected newest first")
	}
	// No recall side effect on About.
	if got[0].TimesRecalled != 0 {
		t.Fatalf("About: times_recalled = %d, want 0", got[0].TimesRecalled)
	}
}

func TestTextRelevance(t *testing.T) {
	t.Parallel()

	r := memory.TextRelevance{}

	identical := r.Score("bandits ambushed the caravan", "bandits ambushed the caravan")
	partial := r.Score("bandits ambushed the caravan", "caravan guards hired")
	none := r.Score("bandits ambushed the caravan", "zzz qqq")

	if identical < 0.99 {
		t.Fatalf("identical text: score %v, want ~1", identical)
	}
	if !(identical > partial && partial > none) {
		t.Fatalf("expected monotonic overlap ordering, got identical=%v partial=%v none=%v",
			identical, partial, none)
	}
	if got := r.Score("", "anything"); got != 0 {
		t.Fatalf("empty description: score %v, want 0", got)
	}

	// Deterministic for identical inputs.
	if a, b := r.Score("a b c", "b c d"), r.Score("a b c", "b c d"); a != b {
		t.Fatalf("relevance not deterministic: %v vs %v", a, b)
	}
}
