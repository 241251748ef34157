package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the players table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
    id         TEXT PRIMARY KEY,
    attributes JSONB NOT NULL DEFAULT '{}',
    progress   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Attribute
// and progress maps are serialised as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the
// players table if it does not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("player: migrate: %w", err)
	}
	return nil
}

// Load fetches a player by ID. It returns (nil, nil) if no player with
// the given ID exists.
func (s *PostgresStore) Load(ctx context.Context, id string) (*Player, error) {
	const query = `
		SELECT id, attributes, progress, created_at, updated_at
		FROM players
		WHERE id = $1`

	var p Player
	var attrJSON, progJSON []byte

	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &attrJSON, &progJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("player: load %q: %w", id, err)
	}

	if err := json.Unmarshal(attrJSON, &p.Attributes); err != nil {
		return nil, fmt.Errorf("player: unmarshal attributes: %w", err)
	}
	if err := json.Unmarshal(progJSON, &p.Progress); err != nil {
		return nil, fmt.Errorf("player: unmarshal progress: %w", err)
	}
	if p.Attributes == nil {
		p.Attributes = make(map[string]int)
	}
	if p.Progress == nil {
		p.Progress = make(map[string]string)
	}
	return &p, nil
}

// Save creates or replaces the stored state for p.
func (s *PostgresStore) Save(ctx context.Context, p *Player) error {
	if p.ID == "" {
		return errors.New("player: save: empty id")
	}

	attrJSON, err := json.Marshal(emptyIntMap(p.Attributes))
	if err != nil {
		return fmt.Errorf("player: marshal attributes: %w", err)
	}
	progJSON, err := json.Marshal(emptyStringMap(p.Progress))
	if err != nil {
		return fmt.Errorf("player: marshal progress: %w", err)
	}

	const query = `
		INSERT INTO players (id, attributes, progress)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			attributes = EXCLUDED.attributes,
			progress = EXCLUDED.progress,
			updated_at = now()
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query, p.ID, attrJSON, progJSON).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("player: save %q: %w", p.ID, err)
	}
	return nil
}

// ResetProgress clears attributes and progress for id while keeping the
// row. Resetting an unknown id is not an error.
func (s *PostgresStore) ResetProgress(ctx context.Context, id string) error {
	const query = `
		UPDATE players SET
			attributes = '{}', progress = '{}', updated_at = now()
		WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("player: reset %q: %w", id, err)
	}
	return nil
}

// Delete removes a player by ID. Deleting a non-existent player is not
// an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM players WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("player: delete %q: %w", id, err)
	}
	return nil
}

// emptyIntMap returns m if non-nil, otherwise an empty non-nil map. This
// ensures JSON marshalling produces "{}" instead of "null".
func emptyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// emptyStringMap returns m if non-nil, otherwise an empty non-nil map.
func emptyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
