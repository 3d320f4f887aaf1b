// Package runstore persists completed comparison runs in SQLite so
// reports survive restarts. The full result graph is stored as one JSON
// blob per run; metadata columns exist only for listing and lookup.
package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no run exists for the requested ID.
var ErrNotFound = errors.New("run not found")

// Run is one persisted comparison.
type Run struct {
	ID        string          `json:"run_id"`
	FilenameA string          `json:"filename_a"`
	FilenameB string          `json:"filename_b"`
	DocHashA  string          `json:"doc_hash_a"`
	DocHashB  string          `json:"doc_hash_b"`
	CreatedAt time.Time       `json:"created_at"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Store is the SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database with
// WAL mode, and runs migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("runstore: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runstore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("runstore: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("runstore: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			filename_a TEXT NOT NULL,
			filename_b TEXT NOT NULL,
			doc_hash_a TEXT NOT NULL,
			doc_hash_b TEXT NOT NULL,
			created_at TEXT NOT NULL,
			result     BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put stores a completed run. Re-putting the same ID replaces the stored
// result, which makes retries after a partial failure safe.
func (s *Store) Put(run Run) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, filename_a, filename_b, doc_hash_a, doc_hash_b, created_at, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FilenameA, run.FilenameB, run.DocHashA, run.DocHashB,
		run.CreatedAt.UTC().Format(time.RFC3339), []byte(run.Result),
	)
	if err != nil {
		return fmt.Errorf("runstore: put %s: %w", run.ID, err)
	}
	return nil
}

// Get retrieves one run including its full result blob.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, filename_a, filename_b, doc_hash_a, doc_hash_b, created_at, result
		 FROM runs WHERE id = ?`, id,
	)
	var run Run
	var createdAt string
	var result []byte
	if err := row.Scan(&run.ID, &run.FilenameA, &run.FilenameB, &run.DocHashA, &run.DocHashB, &createdAt, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runstore: get %s: %w", id, err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	run.Result = json.RawMessage(result)
	return &run, nil
}

// List returns run metadata newest-first, without result blobs.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, filename_a, filename_b, doc_hash_a, doc_hash_b, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("runstore: list: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.FilenameA, &run.FilenameB, &run.DocHashA, &run.DocHashB, &createdAt); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run. Deleting a missing run returns ErrNotFound.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("runstore: delete %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
