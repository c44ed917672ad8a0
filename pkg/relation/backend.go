package relation

import (
	"context"
	"errors"
)

// ErrStorageUnavailable wraps backend failures so callers can distinguish
// infrastructure faults from domain outcomes.
var ErrStorageUnavailable = errors.New("relation: storage unavailable")

// Backend is the minimal persistence capability the ledger needs. Get
// reports found=false for an unknown pair instead of an error; Put inserts
// or replaces the pair's record.
//
// Implementations must be safe for concurrent use. The ledger serializes
// read-modify-write cycles itself, so backends only need atomic single
// operations.
type Backend interface {
	Get(ctx context.Context, npcID, otherID string) (rel Relationship, found bool, err error)
	Put(ctx context.Context, rel Relationship) error
}
