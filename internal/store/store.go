// Package store persists analysis runs: one row per run, one row per
// exported name with its fingerprint. Snapshots from earlier runs feed the
// surface diff.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion is recorded in the metadata table on first migration.
const schemaVersion = "1"

// Store is the SQLite data access layer for surface snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the snapshot tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, schemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: recording schema version: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              INTEGER PRIMARY KEY,
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  entry_path      TEXT NOT NULL,
  export_count    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exports (
  id              INTEGER PRIMARY KEY,
  run_id          INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  module_path     TEXT NOT NULL,
  external_path   TEXT,
  imported        BOOLEAN NOT NULL DEFAULT FALSE,
  nominal         BOOLEAN NOT NULL DEFAULT FALSE,
  fingerprint     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_run_name ON exports(run_id, name);
CREATE INDEX IF NOT EXISTS idx_runs_entry ON runs(entry_path, id);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);
`
