// Package postgres provides the PostgreSQL [memory.Backend] for Eidolon.
//
// Memories live in a single npc_memories table. An optional pgvector column
// supports embedding-based similarity retrieval ([Store.Similar]) when the
// caller supplies pre-computed vectors — the core never calls an embedding
// service itself, so the deterministic retrieval contract is preserved.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/thornwick/eidolon/pkg/memory"
)

// Compile-time interface check.
var _ memory.Backend = (*Store)(nil)

// DefaultEmbeddingDimensions matches common embedding models when the caller
// does not specify a dimension.
const DefaultEmbeddingDimensions = 1536

// Store is a [memory.Backend] backed by a PostgreSQL connection pool.
// All operations are safe for concurrent use; per-NPC write serialisation is
// delegated to the database (row-level transactional updates).
type Store struct {
	pool *pgxpool.Pool
}

// NewStore establishes a connection pool to the database at dsn, registers
// pgvector types on every connection, and runs [Migrate].
//
// embeddingDimensions must match the vectors the caller intends to store;
// pass 0 for [DefaultEmbeddingDimensions]. Changing it after the first
// migration requires a manual schema change.
func NewStore(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: parse dsn: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memory postgres: ping: %w: %w", memory.ErrStorageUnavailable, err)
	}

	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Migrate creates the npc_memories table, its indexes, and the pgvector
// extension if they do not already exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	if embeddingDimensions <= 0 {
		embeddingDimensions = DefaultEmbeddingDimensions
	}
	schema := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS npc_memories (
    id                UUID PRIMARY KEY,
    npc_id            TEXT NOT NULL,
    type              TEXT NOT NULL,
    subject_id        TEXT NOT NULL DEFAULT '',
    description       TEXT NOT NULL,
    emotional_valence DOUBLE PRECISION NOT NULL,
    importance        DOUBLE PRECISION NOT NULL,
    event_id          TEXT NOT NULL DEFAULT '',
    formed_at         TIMESTAMPTZ NOT NULL,
    times_recalled    INTEGER NOT NULL DEFAULT 0,
    last_recalled     TIMESTAMPTZ,
    embedding         vector(%d)
);
CREATE INDEX IF NOT EXISTS idx_npc_memories_npc ON npc_memories(npc_id);
CREATE INDEX IF NOT EXISTS idx_npc_memories_subject ON npc_memories(npc_id, subject_id);
`, embeddingDimensions)

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("memory postgres: migrate: %w: %w", memory.ErrStorageUnavailable, err)
	}
	return nil
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Save implements [memory.Backend.Save].
func (s *Store) Save(ctx context.Context, m memory.Memory) error {
	const q = `
		INSERT INTO npc_memories (
			id, npc_id, type, subject_id, description,
			emotional_valence, importance, event_id, formed_at,
			times_recalled, last_recalled
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	var lastRecalled *time.Time
	if !m.LastRecalled.IsZero() {
		lastRecalled = &m.LastRecalled
	}

	_, err := s.pool.Exec(ctx, q,
		m.ID, m.NPCID, string(m.Type), m.SubjectID, m.Description,
		m.EmotionalValence, m.Importance, m.EventID, m.Timestamp,
		m.TimesRecalled, lastRecalled,
	)
	if err != nil {
		return fmt.Errorf("memory postgres: save %s: %w: %w", m.ID, memory.ErrStorageUnavailable, err)
	}
	return nil
}

// Query implements [memory.Backend.Query].
func (s *Store) Query(ctx context.Context, npcID string, opts memory.QueryOptions) ([]memory.Memory, error) {
	q := `
		SELECT id, npc_id, type, subject_id, description,
		       emotional_valence, importance, event_id, formed_at,
		       times_recalled, last_recalled
		FROM npc_memories
		WHERE npc_id = $1`
	args := []any{npcID}

	if opts.SubjectID != "" {
		args = append(args, opts.SubjectID)
		q += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	if opts.Type != "" {
		args = append(args, string(opts.Type))
		q += fmt.Sprintf(" AND type = $%d", len(args))
	}
	q += " ORDER BY formed_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: query npc %q: %w: %w", npcID, memory.ErrStorageUnavailable, err)
	}

	results, err := pgx.CollectRows(rows, scanMemory)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: scan rows: %w", err)
	}
	if results == nil {
		results = []memory.Memory{}
	}
	return results, nil
}

// UpdateRecall implements [memory.Backend.UpdateRecall]. Updating an unknown
// memory is a no-op.
func (s *Store) UpdateRecall(ctx context.Context, id uuid.UUID, timesRecalled int, lastRecalled time.Time) error {
	const q = `
		UPDATE npc_memories
		SET times_recalled = $2, last_recalled = $3
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, id, timesRecalled, lastRecalled); err != nil {
		return fmt.Errorf("memory postgres: update recall %s: %w: %w", id, memory.ErrStorageUnavailable, err)
	}
	return nil
}

// SetEmbedding attaches a caller-computed embedding vector to a stored
// memory. Returns an error when the memory does not exist.
func (s *Store) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	const q = `UPDATE npc_memories SET embedding = $2 WHERE id = $1 RETURNING id`

	var got uuid.UUID
	err := s.pool.QueryRow(ctx, q, id, pgvector.NewVector(embedding)).Scan(&got)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("memory postgres: set embedding: memory %s not found", id)
		}
		return fmt.Errorf("memory postgres: set embedding %s: %w: %w", id, memory.ErrStorageUnavailable, err)
	}
	return nil
}

// Similar returns the topK memories owned by npcID whose embeddings are
// closest (cosine distance) to the supplied query embedding. Memories
// without an embedding are skipped. Results are ordered most similar first.
func (s *Store) Similar(ctx context.Context, npcID string, embedding []float32, topK int) ([]memory.Memory, error) {
	const q = `
		SELECT id, npc_id, type, subject_id, description,
		       emotional_valence, importance, event_id, formed_at,
		       times_recalled, last_recalled
		FROM npc_memories
		WHERE npc_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`

	rows, err := s.pool.Query(ctx, q, npcID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: similar for npc %q: %w: %w", npcID, memory.ErrStorageUnavailable, err)
	}

	results, err := pgx.CollectRows(rows, scanMemory)
	if err != nil {
		return nil, fmt.Errorf("memory postgres: scan rows: %w", err)
	}
	if results == nil {
		results = []memory.Memory{}
	}
	return results, nil
}

// scanMemory converts one row into a [memory.Memory].
func scanMemory(row pgx.CollectableRow) (memory.Memory, error) {
	var (
		m            memory.Memory
		typ          string
		lastRecalled *time.Time
	)
	if err := row.Scan(
		&m.ID, &m.NPCID, &typ, &m.SubjectID, &m.Description,
		&m.EmotionalValence, &m.Importance, &m.EventID, &m.Timestamp,
		&m.TimesRecalled, &lastRecalled,
	); err != nil {
		return memory.Memory{}, err
	}
	m.Type = memory.MemoryType(typ)
	if lastRecalled != nil {
		m.LastRecalled = *lastRecalled
	}
	return m, nil
}
