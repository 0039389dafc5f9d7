package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mindcare/internal/config"
)

// SQLite stores snapshots in a snapshots table keyed by collection name.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite initializes or connects to the snapshot database and applies
// migrations.
func OpenSQLite(cfg *config.Config) (*SQLite, error) {
	return OpenSQLiteAt(filepath.Join(cfg.Paths.DataDir, "mindcare.db"))
}

// OpenSQLiteAt opens the database at an explicit path.
func OpenSQLiteAt(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &SQLite{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the snapshot stored under key.
func (s *SQLite) Get(key string) ([]byte, bool, error) {
	row := s.db.QueryRow(`SELECT data FROM snapshots WHERE key = ?`, key)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}
	return data, true, nil
}

// Set replaces the snapshot stored under key.
func (s *SQLite) Set(key string, data []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, now,
	)
	if err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// SetAll replaces several snapshots inside one transaction.
func (s *SQLite) SetAll(entries map[string][]byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, data := range entries {
		if _, err := tx.Exec(
			`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
	         ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			key, data, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set snapshot %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

// Keys lists the stored snapshot keys.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// CheckHealth verifies the database responds and passes an integrity check.
func (s *SQLite) CheckHealth(ctx context.Context) error {
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		return fmt.Errorf("ping snapshot database: %w", err)
	}

	var result string
	row := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	if err := row.Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
