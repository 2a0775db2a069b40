// Package history records completed downloads in a local SQLite archive so
// repeat invocations can skip items already on disk.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Kind values stored per entry.
const (
	KindVideo = "video"
	KindAudio = "audio"
)

// Entry is one completed download.
type Entry struct {
	ID          int64
	ItemID      string
	Title       string
	SourceURL   string
	Path        string
	Kind        string
	CompletedAt time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL,
	title TEXT NOT NULL,
	source_url TEXT NOT NULL,
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	completed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_item_id ON downloads(item_id);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record stores one completed download.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	completed := entry.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (item_id, title, source_url, path, kind, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ItemID, entry.Title, entry.SourceURL, entry.Path, entry.Kind,
		completed.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// Seen reports whether an item identifier was recorded before for the given
// kind.
func (s *Store) Seen(ctx context.Context, itemID, kind string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM downloads WHERE item_id = ? AND kind = ?`,
		itemID, kind,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return count > 0, nil
}

// FindByItemID returns the most recent entry for an item, or nil when the
// item was never recorded.
func (s *Store) FindByItemID(ctx context.Context, itemID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_id, title, source_url, path, kind, completed_at
		 FROM downloads WHERE item_id = ? ORDER BY id DESC LIMIT 1`,
		itemID,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query history: %w", err)
	}
	return &entry, nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, title, source_url, path, kind, completed_at
		 FROM downloads ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var completed string
	if err := row.Scan(&entry.ID, &entry.ItemID, &entry.Title, &entry.SourceURL,
		&entry.Path, &entry.Kind, &completed); err != nil {
		return Entry{}, err
	}
	if parsed, err := time.Parse(time.RFC3339, completed); err == nil {
		entry.CompletedAt = parsed
	}
	return entry, nil
}
