// Package localstate persists per-user client state: the cached actor
// identity and the last successful payload per collection, so the dashboard
// can render a last-known view while the server is unreachable.
package localstate

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dbName = "missionctl.db"

// ErrNotFound is returned when a key or snapshot has never been stored.
var ErrNotFound = errors.New("localstate: not found")

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database under dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstate: ensure dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(dir, dbName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstate: open: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	collection TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	taken_at TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("localstate: migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the stored value for key.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("localstate: get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv(key, value, updated_at) VALUES (?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("localstate: put %s: %w", key, err)
	}
	return nil
}

// SaveSnapshot stores the raw payload last fetched for a collection.
func (s *Store) SaveSnapshot(collection string, payload []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots(collection, payload, taken_at) VALUES (?,?,?)
		 ON CONFLICT(collection) DO UPDATE SET payload=excluded.payload, taken_at=excluded.taken_at`,
		collection, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("localstate: snapshot %s: %w", collection, err)
	}
	return nil
}

// Snapshot returns the last stored payload for a collection and when it was taken.
func (s *Store) Snapshot(collection string) ([]byte, time.Time, error) {
	var payload []byte
	var takenAt string
	err := s.db.QueryRow(`SELECT payload, taken_at FROM snapshots WHERE collection = ?`, collection).
		Scan(&payload, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("localstate: snapshot %s: %w", collection, err)
	}
	ts, err := time.Parse(time.RFC3339, takenAt)
	if err != nil {
		ts = time.Time{}
	}
	return payload, ts, nil
}

// ActorKey is the kv key holding the cached actor employee id.
const ActorKey = "actor_employee_id"
