package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Import the Postgres driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/docent/internal/profile"
	"github.com/hrygo/docent/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a Postgres database specified by its connection string.
// The pgvector extension must be installable by the connecting role.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	return &DB{db: pgDB, profile: profile}, nil
}

func (d *DB) GetDB() any {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) migrationStmts() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunk (
			id BIGSERIAL PRIMARY KEY,
			location TEXT NOT NULL,
			class_name TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL,
			created_ts BIGINT NOT NULL
		)`, d.profile.EmbeddingDimensions),
		`CREATE INDEX IF NOT EXISTS idx_document_chunk_key ON document_chunk (location, class_name)`,
		`CREATE TABLE IF NOT EXISTS conversation_turn (
			id BIGSERIAL PRIMARY KEY,
			room_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_turn_room ON conversation_turn (room_id, id)`,
		`CREATE TABLE IF NOT EXISTS conversation_summary (
			room_id TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			updated_ts BIGINT NOT NULL
		)`,
	}
}

func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range d.migrationStmts() {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration statement")
		}
	}
	return nil
}
