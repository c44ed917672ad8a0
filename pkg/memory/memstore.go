package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time assertion that MemStore satisfies the Backend interface.
var _ Backend = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory [Backend]. It is suitable for
// single-session use and testing. The zero value is ready to use.
//
// A single mutex guards all state, which trivially satisfies the
// single-writer-per-NPC discipline.
type MemStore struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]Memory
	byNPC map[string][]uuid.UUID
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		byID:  make(map[uuid.UUID]Memory),
		byNPC: make(map[string][]uuid.UUID),
	}
}

// Save implements [Backend.Save].
func (s *MemStore) Save(ctx context.Context, m Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byID == nil {
		s.byID = make(map[uuid.UUID]Memory)
		s.byNPC = make(map[string][]uuid.UUID)
	}

	if _, exists := s.byID[m.ID]; !exists {
		s.byNPC[m.NPCID] = append(s.byNPC[m.NPCID], m.ID)
	}
	s.byID[m.ID] = m
	return nil
}

// Query implements [Backend.Query].
func (s *MemStore) Query(ctx context.Context, npcID string, opts QueryOptions) ([]Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byNPC[npcID]
	result := make([]Memory, 0, len(ids))
	for _, id := range ids {
		m := s.byID[id]
		if opts.SubjectID != "" && m.SubjectID != opts.SubjectID {
			continue
		}
		if opts.Type != "" && m.Type != opts.Type {
			continue
		}
		result = append(result, m)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

// UpdateRecall implements [Backend.UpdateRecall]. Updating an unknown memory
// is a no-op.
func (s *MemStore) UpdateRecall(ctx context.Context, id uuid.UUID, timesRecalled int, lastRecalled time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return nil
	}
	m.TimesRecalled = timesRecalled
	m.LastRecalled = lastRecalled
	s.byID[id] = m
	return nil
}
