// Package store persists tasks, goals, habits, chat history, and the
// social graph in SQLite. Every record except users is keyed by an
// integer row id and partitioned by the owning user id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when an update or lookup touches no row.
var ErrNotFound = errors.New("not found")

// timeFormat is fixed-width so that lexical order of stored timestamps
// equals chronological order.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// Store is the SQLite-backed record store. All methods are safe for
// concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path with the named driver ("sqlite3" for
// mattn/go-sqlite3, "sqlite" for modernc.org/sqlite) and migrates the
// schema. The caller must have imported the driver.
func Open(driver, path string) (*Store, error) {
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-open database and migrates the schema.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle so sibling stores (opstate) can
// share the same file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		picture TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);

	CREATE TABLE IF NOT EXISTS goals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at);

	CREATE TABLE IF NOT EXISTS subgoals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		goal_id INTEGER NOT NULL REFERENCES goals(id),
		title TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		credits INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_subgoals_goal ON subgoals(goal_id);

	CREATE TABLE IF NOT EXISTS goal_notes (
		goal_id INTEGER PRIMARY KEY REFERENCES goals(id),
		notes TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		streak INTEGER NOT NULL DEFAULT 0,
		frequency TEXT NOT NULL DEFAULT 'daily',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id, created_at);

	CREATE TABLE IF NOT EXISTS habit_completions (
		habit_id INTEGER NOT NULL REFERENCES habits(id),
		date TEXT NOT NULL,
		logged_at TEXT NOT NULL,
		PRIMARY KEY (habit_id, date)
	);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		utterance TEXT NOT NULL,
		reply TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(user_id, session_id);

	CREATE TABLE IF NOT EXISTS friend_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_user_id TEXT NOT NULL,
		to_user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_friend_requests_to ON friend_requests(to_user_id, status);

	CREATE TABLE IF NOT EXISTS friendships (
		user_low TEXT NOT NULL,
		user_high TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_low, user_high)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_user_id TEXT NOT NULL,
		to_user_id TEXT NOT NULL,
		body TEXT NOT NULL,
		read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_user_id);
	`)
	return err
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeFormat)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeFormat, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// requireRow maps a zero-row update to ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
