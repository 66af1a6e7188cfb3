// Package store persists the small amount of session state that survives
// restarts: the last known location and the synthesis provider API key. It is
// a single SQLite settings table; absence of a row is valid.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

const (
	keyLocation = "location"
	keyAPIKey   = "gemini_api_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store is a settings table on a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path and ensures the
// settings table exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLocation persists loc as the last known location.
func (s *Store) SaveLocation(ctx context.Context, loc domain.ResolvedLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	return s.set(ctx, keyLocation, string(data))
}

// LoadLocation returns the persisted location, or ok=false when none was
// saved or the stored value is unreadable.
func (s *Store) LoadLocation(ctx context.Context) (domain.ResolvedLocation, bool, error) {
	value, ok, err := s.get(ctx, keyLocation)
	if err != nil || !ok {
		return domain.ResolvedLocation{}, false, err
	}
	var loc domain.ResolvedLocation
	if err := json.Unmarshal([]byte(value), &loc); err != nil {
		s.logger.Warn("stored location is unreadable, treating as absent", "error", err)
		return domain.ResolvedLocation{}, false, nil
	}
	return loc, true, nil
}

// SetAPIKey stores the synthesis provider key.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, keyAPIKey, key)
}

// ClearAPIKey removes the stored provider key.
func (s *Store) ClearAPIKey(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, keyAPIKey)
	if err != nil {
		return fmt.Errorf("clear api key: %w", err)
	}
	return nil
}

// APIKey returns the stored provider key, or "" when none is stored.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	value, _, err := s.get(ctx, keyAPIKey)
	return value, err
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Credentials resolves the provider key from the store first and falls back
// to the environment value captured at startup.
type Credentials struct {
	store  *Store
	envKey string
}

// NewCredentials creates the store-first credential source.
func NewCredentials(store *Store, envKey string) *Credentials {
	return &Credentials{store: store, envKey: envKey}
}

// APIKey returns the stored key when present, otherwise the environment key.
// An empty result is not an error here; callers fail with their operation's
// error kind.
func (c *Credentials) APIKey(ctx context.Context) (string, error) {
	key, err := c.store.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	return c.envKey, nil
}
