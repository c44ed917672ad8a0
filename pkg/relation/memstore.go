package relation

import (
	"context"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Backend interface.
var _ Backend = (*MemStore)(nil)

type pairKey struct {
	npcID   string
	otherID string
}

// MemStore is a thread-safe, in-memory [Backend] for single-session use and
// testing.
type MemStore struct {
	mu    sync.RWMutex
	pairs map[pairKey]Relationship
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{pairs: make(map[pairKey]Relationship)}
}

// Get implements [Backend.Get].
func (s *MemStore) Get(ctx context.Context, npcID, otherID string) (Relationship, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rel, found := s.pairs[pairKey{npcID, otherID}]
	return rel, found, nil
}

// Put implements [Backend.Put].
func (s *MemStore) Put(ctx context.Context, rel Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pairs == nil {
		s.pairs = make(map[pairKey]Relationship)
	}
	s.pairs[pairKey{rel.NPCID, rel.OtherID}] = rel
	return nil
}
