// Package opstate is a namespaced key-value store for small pieces of
// operational state that must survive restarts, such as which chat
// session each user is currently writing into. Structured records
// belong in the store package.
package opstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionNamespace holds the current chat session id per user.
const SessionNamespace = "chat_session"

// Store is a namespaced key-value store sharing the application's
// SQLite handle.
type Store struct {
	db *sql.DB
}

// NewStore creates the operational_state table in db if needed.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS operational_state (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`)
	return err
}

// Get returns the value for namespace/key, or "" when absent.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM operational_state WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// Set upserts a value.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operational_state (namespace, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE
		 SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM operational_state WHERE namespace = ? AND key = ?`,
		namespace, key,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// CurrentSession returns the user's active chat session id, or "".
func (s *Store) CurrentSession(ctx context.Context, userID string) (string, error) {
	return s.Get(ctx, SessionNamespace, userID)
}

// SetCurrentSession points the user's new chat turns at sessionID.
func (s *Store) SetCurrentSession(ctx context.Context, userID, sessionID string) error {
	return s.Set(ctx, SessionNamespace, userID, sessionID)
}

// ClearCurrentSession forgets the user's active session so the next
// turn starts a fresh one.
func (s *Store) ClearCurrentSession(ctx context.Context, userID string) error {
	return s.Delete(ctx, SessionNamespace, userID)
}
