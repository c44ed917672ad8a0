package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueryOptions narrows a [Backend.Query]. All non-zero fields are applied as
// AND conditions.
type QueryOptions struct {
	// SubjectID restricts results to memories about a specific entity.
	SubjectID string

	// Type restricts results to a single memory type.
	Type MemoryType

	// Limit caps the number of results. A value of 0 means no cap; ranking
	// and truncation to the caller's limit happen in [Store.Retrieve], so
	// backends normally return everything that matches.
	Limit int
}

// Backend is the narrow persistence interface the [Store] writes through.
// Implementations must be safe for concurrent use and must serialise writes
// for the same NPC (single-writer-per-entity discipline) so concurrent
// events cannot lose updates.
type Backend interface {
	// Save persists a new memory.
	// Storage failures are reported wrapped in [ErrStorageUnavailable].
	Save(ctx context.Context, m Memory) error

	// Query returns all memories owned by npcID that match opts, in no
	// guaranteed order. An unknown npcID yields an empty (non-nil) slice,
	// not an error.
	Query(ctx context.Context, npcID string, opts QueryOptions) ([]Memory, error)

	// UpdateRecall records the recall side effect for one memory: the new
	// counter value and last-recalled instant.
	UpdateRecall(ctx context.Context, id uuid.UUID, timesRecalled int, lastRecalled time.Time) error
}
