package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"faarc/internal/archive"
	"faarc/internal/database/migrations"
)

// SQLiteStore implements archive.Store on a single SQLite file kept at the
// archive root. The archiver is strictly single-writer, so the connection
// pool is capped at one connection; that also keeps ":memory:" databases
// coherent in tests.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ archive.Store = (*SQLiteStore)(nil)

// Open opens (or creates) the state store at path and brings the schema up
// to date. path may be ":memory:" for tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating state store: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// FromDB wraps an existing connection. The caller keeps ownership of schema
// management. Used by tests that need raw access to the underlying tables.
func FromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection without running
// migrations.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) GetString(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT CAST(value AS TEXT) FROM state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading state %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetString(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) GetFlag(key string) (bool, error) {
	var value int64
	err := s.db.QueryRow("SELECT CAST(value AS INTEGER) FROM state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading flag %q: %w", key, err)
	}
	return value != 0, nil
}

// FinishCategory inserts all elements and sets the completion flag in one
// transaction, so a crash mid-collection never leaves a category half
// enqueued but flagged done. Duplicate (kind, remote_id) pairs are skipped:
// with the flag guarding re-enumeration they only occur when the remote
// listing itself repeated an item.
func (s *SQLiteStore) FinishCategory(flag string, elements []archive.Element) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, el := range elements {
		var aux any
		if el.AuxData != "" {
			aux = el.AuxData
		}
		_, err := tx.Exec(
			"INSERT INTO archive_element (kind, remote_id, aux_data, archived) VALUES (?, ?, ?, 0)",
			string(el.Kind), el.RemoteID, aux,
		)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("enqueueing %s/%d: %w", el.Kind, el.RemoteID, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO state (key, value) VALUES (?, 1)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, flag); err != nil {
		return fmt.Errorf("setting flag %q: %w", flag, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// NextOpen returns the open element with the smallest id, or nil when the
// queue is drained. The kind is returned as stored; validating it is the
// dispatcher's job.
func (s *SQLiteStore) NextOpen() (*archive.Element, error) {
	var (
		el   archive.Element
		kind string
		aux  sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT id, kind, remote_id, aux_data FROM archive_element
		WHERE NOT archived ORDER BY id LIMIT 1`).Scan(&el.ID, &kind, &el.RemoteID, &aux)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming next element: %w", err)
	}
	el.Kind = archive.Kind(kind)
	el.AuxData = aux.String
	return &el, nil
}

func (s *SQLiteStore) CloseElement(id int64) error {
	if _, err := s.db.Exec("UPDATE archive_element SET archived = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("closing element %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CountOpen() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archive_element WHERE NOT archived").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting open elements: %w", err)
	}
	return n, nil
}

// CountTotal returns the number of elements ever enqueued. The queue is an
// audit log; elements are never deleted.
func (s *SQLiteStore) CountTotal() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM archive_element").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting elements: %w", err)
	}
	return n, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
