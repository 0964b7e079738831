package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/docent/internal/profile"
	"github.com/hrygo/docent/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by the profile DSN.
//
// Connection settings:
// - Journal mode set to WAL: the recommended journal mode for most
//   applications as it prevents locking issues.
// - busy_timeout keeps concurrent readers from failing fast during the
//   (rare) write bursts of the deferred conversation updater.
//
// Note: when using the `modernc.org/sqlite` driver, each pragma must be
// prefixed with `_pragma=`.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL for this workload.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() any {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

var migrationStmts = []string{
	`CREATE TABLE IF NOT EXISTS document_chunk (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		location TEXT NOT NULL,
		class_name TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding BLOB NOT NULL,
		created_ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_document_chunk_key ON document_chunk (location, class_name)`,
	`CREATE TABLE IF NOT EXISTS conversation_turn (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
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

// Migrate creates the schema when absent. The schema is small enough that
// idempotent CREATE IF NOT EXISTS statements cover the migration story.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrationStmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to run migration statement")
		}
	}
	return nil
}
