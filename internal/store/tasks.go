package store

import (
	"context"
	"fmt"
)

const taskColumns = `id, user_id, title, status, priority, created_at`

// CreateTask inserts a task and returns it with its assigned id.
func (s *Store) CreateTask(ctx context.Context, userID, title string, status TaskStatus, priority Priority) (*Task, error) {
	if status == "" {
		status = TaskPending
	}
	if priority == "" {
		priority = PriorityMedium
	}
	created := s.stamp()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, status, priority, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, title, string(status), string(priority), created)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task id: %w", err)
	}
	return &Task{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Status:    status,
		Priority:  priority,
		CreatedAt: parseTime(created),
	}, nil
}

// ListTasks returns every task owned by userID, newest first.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
}

// PendingTasks returns the user's pending tasks, newest first.
func (s *Store) PendingTasks(ctx context.Context, userID string) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND status = ? ORDER BY created_at DESC, id DESC`,
		userID, string(TaskPending))
}

// CompleteTask marks a task completed. Completing an already completed
// task is not an error.
func (s *Store) CompleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ?`, string(TaskCompleted), id)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return requireRow(res, fmt.Sprintf("task %d", id))
}

// GetTask returns a single task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return &tasks[0], nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var status, priority, created string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &status, &priority, &created); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status = TaskStatus(status)
		t.Priority = Priority(priority)
		t.CreatedAt = parseTime(created)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
