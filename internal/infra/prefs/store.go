// Package prefs persists user preferences in a SQLite database.
package prefs

import (
	"database/sql"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/osa030/localbox/internal/domain/library"
)

const keySortKey = "sort_key"

// Store keeps the sort key and the music folders.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the preference database at path.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open preference database")
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			path     TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to initialize preference database")
		}
	}

	zlog.Debug().Msgf("prefs: opened: path=%s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SortKey returns the stored sort key, or SortNone when none was stored.
func (s *Store) SortKey() (library.SortKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, keySortKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return library.SortNone, nil
	}
	if err != nil {
		return library.SortNone, errors.Wrap(err, "failed to read sort key")
	}
	return library.ParseSortKey(value)
}

// SetSortKey stores the sort key.
func (s *Store) SetSortKey(key library.SortKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, keySortKey, key.String())
	if err != nil {
		return errors.Wrap(err, "failed to write sort key")
	}
	return nil
}

// Folders returns the music folders in the order they were added.
func (s *Store) Folders() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM folders ORDER BY added_at, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list folders")
	}
	defer rows.Close()

	folders := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, errors.Wrap(err, "failed to scan folder")
		}
		folders = append(folders, path)
	}
	return folders, errors.Wrap(rows.Err(), "failed to list folders")
}

// AddFolder stores a music folder. Adding a known folder is a no-op.
func (s *Store) AddFolder(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO folders (path, added_at) VALUES (?, ?)
		ON CONFLICT(path) DO NOTHING`, path, time.Now().UnixMilli())
	if err != nil {
		return errors.Wrapf(err, "failed to add folder %s", path)
	}
	return nil
}

// RemoveFolder forgets a music folder.
func (s *Store) RemoveFolder(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM folders WHERE path = ?`, path); err != nil {
		return errors.Wrapf(err, "failed to remove folder %s", path)
	}
	return nil
}
