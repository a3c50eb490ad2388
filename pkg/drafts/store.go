package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed draft keys, one per table context.
const (
	KeyRules  = "rules"
	KeyEvents = "events"
)

// Store persists unsubmitted table drafts in a local SQLite file, one JSON
// blob per fixed key. It is the durable local state of a single operator's
// machine; concurrent editors are out of scope and may clobber each other.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the draft store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create draft dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS drafts (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init draft schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save serializes v under key, overwriting any prior draft.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save draft %q: %w", key, err)
	}
	return nil
}

// Load deserializes the draft under key into v. Returns false with no error
// when no draft exists.
func (s *Store) Load(ctx context.Context, key string, v any) (bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load draft %q: %w", key, err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("decode draft %q: %w", key, err)
	}
	return true, nil
}

// Clear removes the draft under key. Clearing a missing draft is a no-op.
func (s *Store) Clear(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear draft %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
