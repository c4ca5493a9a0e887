// Package store persists session snapshots in a single-row SQLite table so an
// evening survives server restarts.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_save (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	snapshot   BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed snapshot store. One database holds at most one
// session snapshot; saving overwrites the previous one.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// A single writer owns the file; more connections just contend.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the current snapshot.
func (s *Store) Save(snapshot []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO session_save (id, snapshot, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		snapshot, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, with ok=false when none exists.
func (s *Store) Load() ([]byte, bool, error) {
	var snapshot []byte
	err := s.db.QueryRow(`SELECT snapshot FROM session_save WHERE id = 1`).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Clear removes the stored snapshot, resetting the evening.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session_save WHERE id = 1`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
