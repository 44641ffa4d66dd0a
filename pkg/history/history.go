// Package history persists the omnibar's query history and named saved
// queries in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/metrics"
)

// DefaultMaxEntries is how many history rows are kept.
const DefaultMaxEntries = 500

// ErrNotFound is returned when a saved query does not exist.
var ErrNotFound = errors.New("saved query not found")

// ErrEmptyName is returned when saving a query without a name.
var ErrEmptyName = errors.New("saved query name cannot be empty")

// Entry is one committed query.
type Entry struct {
	Query  string    `json:"query"`
	UsedAt time.Time `json:"used_at"`
}

// Saved is a named query.
type Saved struct {
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	query   TEXT    NOT NULL,
	used_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS saved (
	name       TEXT    PRIMARY KEY,
	query      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a SQLite-backed history. It is safe for concurrent use.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
	now        func() time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open history database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY between our own
	// connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{
		db:         db,
		path:       path,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SetMaxEntries changes how many history rows Record keeps.
func (s *Store) SetMaxEntries(n int) {
	if n > 0 {
		s.maxEntries = n
	}
}

// Record appends query to the history. Blank queries and immediate repeats
// of the newest entry are ignored. Callers pass canonical query strings so
// equivalent queries collapse.
func (s *Store) Record(ctx context.Context, query string) error {
	defer metrics.Timer(metrics.HistoryIO)()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var last string
	err := s.db.QueryRowContext(ctx, `SELECT query FROM history ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reading last history entry: %w", err)
	}
	if last == query {
		debug.Log("history: skipping repeated query %q", query)
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO history (query, used_at) VALUES (?, ?)`,
		query, s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("recording query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
		s.maxEntries,
	); err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything kept.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	defer metrics.Timer(metrics.HistoryIO)()

	if limit <= 0 {
		limit = s.maxEntries
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, used_at FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var usedAt int64
		if err := rows.Scan(&e.Query, &usedAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.UsedAt = time.Unix(0, usedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save stores query under name, replacing any previous query of that name.
func (s *Store) Save(ctx context.Context, name, query string) error {
	defer metrics.Timer(metrics.HistoryIO)()

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO saved (name, query, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET query = excluded.query, updated_at = excluded.updated_at`,
		name, query, s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("saving query %q: %w", name, err)
	}
	return nil
}

// Lookup returns the saved query called name.
func (s *Store) Lookup(ctx context.Context, name string) (Saved, error) {
	defer metrics.Timer(metrics.HistoryIO)()

	sq := Saved{Name: strings.TrimSpace(name)}
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT query, updated_at FROM saved WHERE name = ?`, sq.Name,
	).Scan(&sq.Query, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Saved{}, fmt.Errorf("%w: %s", ErrNotFound, sq.Name)
	}
	if err != nil {
		return Saved{}, fmt.Errorf("looking up query %q: %w", sq.Name, err)
	}
	sq.UpdatedAt = time.Unix(0, updatedAt)
	return sq, nil
}

// List returns every saved query ordered by name.
func (s *Store) List(ctx context.Context) ([]Saved, error) {
	defer metrics.Timer(metrics.HistoryIO)()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, query, updated_at FROM saved ORDER BY name COLLATE NOCASE, name`)
	if err != nil {
		return nil, fmt.Errorf("listing saved queries: %w", err)
	}
	defer rows.Close()

	var out []Saved
	for rows.Next() {
		var sq Saved
		var updatedAt int64
		if err := rows.Scan(&sq.Name, &sq.Query, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning saved query: %w", err)
		}
		sq.UpdatedAt = time.Unix(0, updatedAt)
		out = append(out, sq)
	}
	return out, rows.Err()
}

// Delete removes the saved query called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	defer metrics.Timer(metrics.HistoryIO)()

	name = strings.TrimSpace(name)
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting query %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting query %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
