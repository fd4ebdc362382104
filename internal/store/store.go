// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists crawl batches, filing analyses, and enterprise
// details in a local SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/faillink/pkg/types"
)

const (
	// DefaultDataDir holds the database when no directory is configured.
	DefaultDataDir = "data"

	dbFile = "faillink.db"

	timeLayout = time.RFC3339Nano
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Store manages the SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// Open opens or creates dataDir/faillink.db and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, dbFile)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date_from TEXT NOT NULL,
			date_to TEXT NOT NULL,
			source TEXT NOT NULL,
			pages TEXT NOT NULL,
			count_raw INTEGER NOT NULL,
			count_distinct INTEGER NOT NULL,
			grabbed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS batch_identifiers (
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			cbe TEXT NOT NULL,
			PRIMARY KEY (batch_id, cbe)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_identifiers_cbe ON batch_identifiers(cbe)`,
		`CREATE TABLE IF NOT EXISTS filings (
			cbe TEXT NOT NULL,
			reference_number TEXT NOT NULL,
			deposit_date TEXT,
			exercise_start TEXT,
			exercise_end TEXT,
			model_type TEXT,
			language TEXT,
			currency TEXT,
			data_version TEXT,
			structured INTEGER NOT NULL,
			figures TEXT,
			pages INTEGER,
			recognition_failures TEXT,
			analyzed_at TEXT NOT NULL,
			PRIMARY KEY (cbe, reference_number)
		)`,
		`CREATE TABLE IF NOT EXISTS enterprises (
			number TEXT PRIMARY KEY,
			batch_id INTEGER REFERENCES batches(id) ON DELETE SET NULL,
			name TEXT,
			juridical_situation TEXT,
			juridical_form TEXT,
			detail TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enterprises_batch ON enterprises(batch_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
