package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBackend persists session entries in the session_entries table
// created by telemetry.InitDB.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an open database
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow("SELECT value FROM session_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query entry %s: %w", key, err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Put(entries map[string]string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for k, v := range entries {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO session_entries (key, value, updated_at) VALUES (?, ?, ?)",
			k, v, now,
		)
		if err != nil {
			return fmt.Errorf("failed to write entry %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(keys ...string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.Exec("DELETE FROM session_entries WHERE key = ?", k); err != nil {
			return fmt.Errorf("failed to delete entry %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
