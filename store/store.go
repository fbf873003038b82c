// Package store keeps decoded classes and their run history in SQLite.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chazu/classrun/pkg/classfile"
	"github.com/chazu/classrun/pkg/wire"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested class is not stored.
var ErrNotFound = errors.New("class not found")

// Memory opens a private in-memory database.
const Memory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	hash    TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	data    BLOB NOT NULL,
	summary BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	hash   TEXT NOT NULL REFERENCES classes(hash),
	method TEXT NOT NULL,
	output TEXT NOT NULL,
	error  TEXT NOT NULL,
	at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_by_hash ON runs(hash, at);
`

// Store is a content-addressed class store. Classes are keyed by the hex
// SHA-256 of their bytes.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Run is one recorded execution of a stored class.
type Run struct {
	ID     int64
	Hash   string
	Method string
	Output string
	Error  string
	At     time.Time
}

// HashKey returns the key a class with the given hash is stored under.
func HashKey(hash [32]byte) string {
	return hex.EncodeToString(hash[:])
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == Memory {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	commonlog.GetLogger("classrun.store").Debugf("opened class store %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutClass stores raw, which must decode to cf, and returns its summary.
// Storing the same bytes again leaves the existing row in place.
func (s *Store) PutClass(raw []byte, cf *classfile.ClassFile) (classfile.Summary, error) {
	summary := classfile.Summarize(cf, raw)
	blob, err := wire.MarshalSummary(&summary)
	if err != nil {
		return summary, fmt.Errorf("encoding summary: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO classes (hash, name, data, summary) VALUES (?, ?, ?, ?)",
		HashKey(summary.Hash), summary.ClassName, raw, blob,
	)
	if err != nil {
		return summary, fmt.Errorf("saving class: %w", err)
	}
	return summary, nil
}

// Class returns the raw bytes stored under hash.
func (s *Store) Class(hash string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM classes WHERE hash = ?", hash).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("querying class: %w", err)
	}
	return data, nil
}

// Summary returns the summary stored under hash.
func (s *Store) Summary(hash string) (*classfile.Summary, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT summary FROM classes WHERE hash = ?", hash).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return wire.UnmarshalSummary(blob)
}

// Summaries returns the summaries of every stored class ordered by class
// name.
func (s *Store) Summaries() ([]*classfile.Summary, error) {
	rows, err := s.db.Query("SELECT summary FROM classes ORDER BY name, hash")
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var out []*classfile.Summary
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		sum, err := wire.UnmarshalSummary(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// RecordRun appends a run to the history of a stored class. A zero At is
// set to the current time.
func (s *Store) RecordRun(r Run) error {
	if r.At.IsZero() {
		r.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM classes WHERE hash = ?", r.Hash).Scan(&exists)
	if err != nil {
		return fmt.Errorf("querying class: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%s: %w", r.Hash, ErrNotFound)
	}

	_, err = s.db.Exec(
		"INSERT INTO runs (hash, method, output, error, at) VALUES (?, ?, ?, ?, ?)",
		r.Hash, r.Method, r.Output, r.Error, r.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Runs returns the run history of hash, newest first.
func (s *Store) Runs(hash string) ([]Run, error) {
	rows, err := s.db.Query(
		"SELECT id, hash, method, output, error, at FROM runs WHERE hash = ? ORDER BY at DESC, id DESC",
		hash,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var at int64
		if err := rows.Scan(&r.ID, &r.Hash, &r.Method, &r.Output, &r.Error, &at); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.At = time.Unix(0, at)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
