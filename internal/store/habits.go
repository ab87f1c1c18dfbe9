package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DateFormat is the calendar-date layout used for habit completions.
const DateFormat = "2006-01-02"

const habitColumns = `id, user_id, name, streak, frequency, created_at`

// CreateHabit inserts a habit with a zero streak.
func (s *Store) CreateHabit(ctx context.Context, userID, name, frequency string) (*Habit, error) {
	if frequency == "" {
		frequency = "daily"
	}
	created := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO habits (user_id, name, streak, frequency, created_at) VALUES (?, ?, 0, ?, ?)`,
		userID, name, frequency, created)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("habit id: %w", err)
	}
	return &Habit{ID: id, UserID: userID, Name: name, Frequency: frequency, CreatedAt: parseTime(created)}, nil
}

// ListHabits returns the user's habits, newest first.
func (s *Store) ListHabits(ctx context.Context, userID string) ([]Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range habits {
		if habits[i].Streak, err = s.currentStreak(ctx, habits[i].ID); err != nil {
			return nil, err
		}
	}
	return habits, nil
}

// GetHabit returns a habit by id.
func (s *Store) GetHabit(ctx context.Context, id int64) (*Habit, error) {
	h, err := scanHabit(s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("habit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if h.Streak, err = s.currentStreak(ctx, id); err != nil {
		return nil, err
	}
	return h, nil
}

// currentStreak is the run of logged days ending today, or ending
// yesterday while today is still unlogged. A habit skipped for a whole
// day reads as zero even though the stored streak is only rewritten on
// the next log.
func (s *Store) currentStreak(ctx context.Context, habitID int64) (int, error) {
	today := s.now().Format(DateFormat)
	end, err := time.Parse(DateFormat, today)
	if err != nil {
		return 0, err
	}
	dates, err := completionDates(ctx, s.db, habitID, today, -1)
	if err != nil {
		return 0, err
	}
	if len(dates) > 0 && dates[0] != today {
		end = end.AddDate(0, 0, -1)
	}
	return consecutiveDays(end, dates), nil
}

func scanHabit(sc scanner) (*Habit, error) {
	var h Habit
	var created string
	if err := sc.Scan(&h.ID, &h.UserID, &h.Name, &h.Streak, &h.Frequency, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan habit: %w", err)
	}
	h.CreatedAt = parseTime(created)
	return &h, nil
}

// DeleteHabit removes a habit and its completion log.
func (s *Store) DeleteHabit(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_id = ?`, id); err != nil {
			return fmt.Errorf("delete habit %d completions: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete habit %d: %w", id, err)
		}
		return requireRow(res, fmt.Sprintf("habit %d", id))
	})
}

// LogHabit records a completion of habitID on date (YYYY-MM-DD). It
// reports false without error when the habit was already logged for
// that date. On a new completion the streak is recomputed as the run of
// consecutive logged days ending on date.
func (s *Store) LogHabit(ctx context.Context, habitID int64, date string) (bool, error) {
	day, err := time.Parse(DateFormat, date)
	if err != nil {
		return false, fmt.Errorf("log habit %d: bad date %q: %w", habitID, date, err)
	}

	var logged bool
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM habits WHERE id = ?`, habitID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("habit %d: %w", habitID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check habit %d: %w", habitID, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO habit_completions (habit_id, date, logged_at) VALUES (?, ?, ?)`,
			habitID, date, s.stamp())
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		if n == 0 {
			return nil
		}
		logged = true

		dates, err := completionDates(ctx, tx, habitID, date, -1)
		if err != nil {
			return err
		}
		streak := consecutiveDays(day, dates)
		if _, err := tx.ExecContext(ctx, `UPDATE habits SET streak = ? WHERE id = ?`, streak, habitID); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		return nil
	})
	return logged, err
}

// HabitLoggedOn reports whether habitID has a completion on date.
func (s *Store) HabitLoggedOn(ctx context.Context, habitID int64, date string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM habit_completions WHERE habit_id = ? AND date = ?`, habitID, date).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("habit %d completion: %w", habitID, err)
	}
	return true, nil
}

// RecentCompletions returns up to limit completion dates, newest first.
func (s *Store) RecentCompletions(ctx context.Context, habitID int64, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM habit_completions WHERE habit_id = ? ORDER BY date DESC LIMIT ?`,
		habitID, limit)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func completionDates(ctx context.Context, q querier, habitID int64, onOrBefore string, limit int) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT date FROM habit_completions WHERE habit_id = ? AND date <= ? ORDER BY date DESC LIMIT ?`,
		habitID, onOrBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

func scanDates(rows *sql.Rows) ([]string, error) {
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// consecutiveDays counts how many of the newest-first dates form an
// unbroken daily run ending on end.
func consecutiveDays(end time.Time, dates []string) int {
	want := end
	streak := 0
	for _, d := range dates {
		if d != want.Format(DateFormat) {
			break
		}
		streak++
		want = want.AddDate(0, 0, -1)
	}
	return streak
}
