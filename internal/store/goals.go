package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const goalColumns = `id, user_id, title, progress, created_at`

// CreateGoal inserts a goal at zero progress.
func (s *Store) CreateGoal(ctx context.Context, userID, title string) (*Goal, error) {
	created := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, progress, created_at) VALUES (?, ?, 0, ?)`,
		userID, title, created)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("goal id: %w", err)
	}
	return &Goal{ID: id, UserID: userID, Title: title, CreatedAt: parseTime(created)}, nil
}

// ListGoals returns every goal owned by userID, newest first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]Goal, error) {
	return s.queryGoals(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
}

// IncompleteGoals returns goals below 100% progress, newest first.
func (s *Store) IncompleteGoals(ctx context.Context, userID string) ([]Goal, error) {
	return s.queryGoals(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND progress < 100 ORDER BY created_at DESC, id DESC`,
		userID)
}

// GetGoal returns a single goal by id.
func (s *Store) GetGoal(ctx context.Context, id int64) (*Goal, error) {
	goals, err := s.queryGoals(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	return &goals[0], nil
}

// SetGoalProgress stores progress clamped to [0, 100].
func (s *Store) SetGoalProgress(ctx context.Context, id int64, progress int) error {
	progress = max(0, min(100, progress))
	res, err := s.db.ExecContext(ctx, `UPDATE goals SET progress = ? WHERE id = ?`, progress, id)
	if err != nil {
		return fmt.Errorf("set goal %d progress: %w", id, err)
	}
	return requireRow(res, fmt.Sprintf("goal %d", id))
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...any) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		var created string
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Progress, &created); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.CreatedAt = parseTime(created)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// CreateSubgoal adds an incomplete subgoal under goalID. Credits below
// one are stored as one.
func (s *Store) CreateSubgoal(ctx context.Context, goalID int64, title string, credits int) (*Subgoal, error) {
	credits = max(1, credits)

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM goals WHERE id = ?`, goalID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %d: %w", goalID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("check goal %d: %w", goalID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subgoals (goal_id, title, completed, credits) VALUES (?, ?, 0, ?)`,
		goalID, title, credits)
	if err != nil {
		return nil, fmt.Errorf("insert subgoal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("subgoal id: %w", err)
	}
	return &Subgoal{ID: id, GoalID: goalID, Title: title, Credits: credits}, nil
}

// ListSubgoals returns the subgoals of a goal in creation order.
func (s *Store) ListSubgoals(ctx context.Context, goalID int64) ([]Subgoal, error) {
	return s.querySubgoals(ctx,
		`SELECT id, goal_id, title, completed, credits FROM subgoals WHERE goal_id = ? ORDER BY id`,
		goalID)
}

// UserSubgoals returns every subgoal across the user's goals, grouped
// by goal with the newest goal first.
func (s *Store) UserSubgoals(ctx context.Context, userID string) ([]Subgoal, error) {
	return s.querySubgoals(ctx, `
		SELECT s.id, s.goal_id, s.title, s.completed, s.credits
		FROM subgoals s JOIN goals g ON g.id = s.goal_id
		WHERE g.user_id = ?
		ORDER BY g.created_at DESC, g.id DESC, s.id`,
		userID)
}

// ToggleSubgoal flips the completion flag of a subgoal belonging to
// goalID and returns the new value.
func (s *Store) ToggleSubgoal(ctx context.Context, goalID, subgoalID int64) (bool, error) {
	var completed bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE subgoals SET completed = 1 - completed WHERE id = ? AND goal_id = ? RETURNING completed`,
		subgoalID, goalID).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("subgoal %d of goal %d: %w", subgoalID, goalID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggle subgoal %d: %w", subgoalID, err)
	}
	return completed, nil
}

func (s *Store) querySubgoals(ctx context.Context, query string, args ...any) ([]Subgoal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subgoals: %w", err)
	}
	defer rows.Close()

	var subs []Subgoal
	for rows.Next() {
		var sg Subgoal
		if err := rows.Scan(&sg.ID, &sg.GoalID, &sg.Title, &sg.Completed, &sg.Credits); err != nil {
			return nil, fmt.Errorf("scan subgoal: %w", err)
		}
		subs = append(subs, sg)
	}
	return subs, rows.Err()
}

// GoalNotes returns the free-form notes saved for a goal, or "" when
// none have been written.
func (s *Store) GoalNotes(ctx context.Context, goalID int64) (string, error) {
	var notes string
	err := s.db.QueryRowContext(ctx, `SELECT notes FROM goal_notes WHERE goal_id = ?`, goalID).Scan(&notes)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("goal %d notes: %w", goalID, err)
	}
	return notes, nil
}

// SetGoalNotes replaces the notes for a goal.
func (s *Store) SetGoalNotes(ctx context.Context, goalID int64, notes string) error {
	if _, err := s.GetGoal(ctx, goalID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_notes (goal_id, notes, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(goal_id) DO UPDATE SET notes = excluded.notes, updated_at = excluded.updated_at`,
		goalID, notes, s.stamp())
	if err != nil {
		return fmt.Errorf("save goal %d notes: %w", goalID, err)
	}
	return nil
}
