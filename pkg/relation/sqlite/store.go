// Package sqlite provides a SQLite-backed [relation.Backend] for campaigns
// that persist relationship state across sessions without a server database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/thornwick/eidolon/pkg/relation"
)

// Compile-time interface check.
var _ relation.Backend = (*Store)(nil)

// Store is a [relation.Backend] over a single SQLite file.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("relation sqlite: open %q: %w", path, err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("relation sqlite: migrate: %w: %w", relation.ErrStorageUnavailable, err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS relationships (
		npc_id     TEXT NOT NULL,
		other_id   TEXT NOT NULL,
		type       TEXT NOT NULL,
		trust      REAL NOT NULL,
		valence    REAL NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (npc_id, other_id)
	);

	CREATE INDEX IF NOT EXISTS idx_relationships_npc ON relationships(npc_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Get implements [relation.Backend.Get].
func (s *Store) Get(ctx context.Context, npcID, otherID string) (relation.Relationship, bool, error) {
	const q = `
		SELECT npc_id, other_id, type, trust, valence, updated_at
		FROM relationships
		WHERE npc_id = ? AND other_id = ?`

	var rel relation.Relationship
	err := s.conn.GetContext(ctx, &rel, q, npcID, otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return relation.Relationship{}, false, nil
	}
	if err != nil {
		return relation.Relationship{}, false,
			fmt.Errorf("relation sqlite: get %s->%s: %w: %w", npcID, otherID, relation.ErrStorageUnavailable, err)
	}
	return rel, true, nil
}

// Put implements [relation.Backend.Put].
func (s *Store) Put(ctx context.Context, rel relation.Relationship) error {
	const q = `
		INSERT INTO relationships (npc_id, other_id, type, trust, valence, updated_at)
		VALUES (:npc_id, :other_id, :type, :trust, :valence, :updated_at)
		ON CONFLICT (npc_id, other_id) DO UPDATE SET
			type = excluded.type,
			trust = excluded.trust,
			valence = excluded.valence,
			updated_at = excluded.updated_at`

	if _, err := s.conn.NamedExecContext(ctx, q, rel); err != nil {
		return fmt.Errorf("relation sqlite: put %s->%s: %w: %w",
			rel.NPCID, rel.OtherID, relation.ErrStorageUnavailable, err)
	}
	return nil
}

// All returns every relationship held by npcID, for session summaries and
// debugging tools.
func (s *Store) All(ctx context.Context, npcID string) ([]relation.Relationship, error) {
	const q = `
		SELECT npc_id, other_id, type, trust, valence, updated_at
		FROM relationships
		WHERE npc_id = ?
		ORDER BY other_id`

	var rels []relation.Relationship
	if err := s.conn.SelectContext(ctx, &rels, q, npcID); err != nil {
		return nil, fmt.Errorf("relation sqlite: all for %q: %w: %w", npcID, relation.ErrStorageUnavailable, err)
	}
	if rels == nil {
		rels = []relation.Relationship{}
	}
	return rels, nil
}
