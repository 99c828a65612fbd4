package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded analysis run.
type Run struct {
	ID          int64
	CreatedAt   time.Time
	EntryPath   string
	ExportCount int
}

// ExportRow is one exported name of a recorded run.
type ExportRow struct {
	ID           int64
	RunID        int64
	Name         string
	Kind         string
	ModulePath   string
	ExternalPath string
	Imported     bool
	Nominal      bool
	Fingerprint  string
}

// RecordRun inserts a run and its exports in a single transaction, returning
// the new run ID.
func (s *Store) RecordRun(entryPath string, exports []ExportRow) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (entry_path, export_count) VALUES (?, ?)`,
		entryPath, len(exports))
	if err != nil {
		return 0, fmt.Errorf("record run: insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record run: run id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO exports (run_id, name, kind, module_path, external_path, imported, nominal, fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("record run: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range exports {
		_, err := stmt.Exec(runID, e.Name, e.Kind, e.ModulePath, e.ExternalPath,
			e.Imported, e.Nominal, e.Fingerprint)
		if err != nil {
			return 0, fmt.Errorf("record run: insert export %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run: commit: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent run for entryPath, or nil when none has
// been recorded.
func (s *Store) LatestRun(entryPath string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, entry_path, export_count
		 FROM runs WHERE entry_path = ? ORDER BY id DESC LIMIT 1`, entryPath)

	var r Run
	err := row.Scan(&r.ID, &r.CreatedAt, &r.EntryPath, &r.ExportCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &r, nil
}

// RunExports returns the exports of one run, ordered by name.
func (s *Store) RunExports(runID int64) ([]ExportRow, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, name, kind, module_path, external_path, imported, nominal, fingerprint
		 FROM exports WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("run exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var e ExportRow
		var external sql.NullString
		err := rows.Scan(&e.ID, &e.RunID, &e.Name, &e.Kind, &e.ModulePath,
			&external, &e.Imported, &e.Nominal, &e.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("run exports: scan: %w", err)
		}
		e.ExternalPath = external.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run exports: %w", err)
	}
	return out, nil
}
