package assistant

import (
	"context"
	"strings"

	"github.com/nugget/accountable/internal/store"
)

// Resolver matches spoken fragments to a user's stored records.
//
// A record matches when its name contains the trimmed fragment, ignoring
// case. Collections are scanned in their natural newest-first order and
// the first match wins; there is no ranking by match quality. An empty
// fragment matches nothing. A nil result with a nil error means "not
// found", which callers report to the user rather than treat as a fault.
type Resolver struct {
	st Store
}

// NewResolver returns a Resolver over st.
func NewResolver(st Store) *Resolver {
	return &Resolver{st: st}
}

// Matches reports whether name contains fragment, case-insensitively.
func Matches(name, fragment string) bool {
	f := strings.ToLower(strings.TrimSpace(fragment))
	if f == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), f)
}

// firstMatch returns the first item whose name matches fragment.
func firstMatch[T any](items []T, fragment string, name func(*T) string) *T {
	for i := range items {
		if Matches(name(&items[i]), fragment) {
			return &items[i]
		}
	}
	return nil
}

func taskTitle(t *store.Task) string { return t.Title }

func goalTitle(g *store.Goal) string { return g.Title }

func habitName(h *store.Habit) string { return h.Name }

func subgoalTitle(s *store.Subgoal) string { return s.Title }

func userName(u *store.User) string { return u.Name }

// Goal finds any of the user's goals.
func (r *Resolver) Goal(ctx context.Context, userID, fragment string) (*store.Goal, error) {
	goals, err := r.st.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return firstMatch(goals, fragment, goalTitle), nil
}

// IncompleteGoal finds a goal below 100% progress.
func (r *Resolver) IncompleteGoal(ctx context.Context, userID, fragment string) (*store.Goal, error) {
	goals, err := r.st.IncompleteGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return firstMatch(goals, fragment, goalTitle), nil
}

// PendingTask finds a task that is not yet completed.
func (r *Resolver) PendingTask(ctx context.Context, userID, fragment string) (*store.Task, error) {
	tasks, err := r.st.PendingTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return firstMatch(tasks, fragment, taskTitle), nil
}

// Habit finds one of the user's habits.
func (r *Resolver) Habit(ctx context.Context, userID, fragment string) (*store.Habit, error) {
	habits, err := r.st.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return firstMatch(habits, fragment, habitName), nil
}

// Subgoal finds a subgoal under any of the user's goals. Incomplete
// subgoals are preferred; a completed one is returned only when no
// incomplete subgoal matches.
func (r *Resolver) Subgoal(ctx context.Context, userID, fragment string) (*store.Subgoal, error) {
	subs, err := r.st.UserSubgoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	var open []store.Subgoal
	for _, s := range subs {
		if !s.Completed {
			open = append(open, s)
		}
	}
	if sg := firstMatch(open, fragment, subgoalTitle); sg != nil {
		return sg, nil
	}
	return firstMatch(subs, fragment, subgoalTitle), nil
}

// Friend finds an accepted friend by display name.
func (r *Resolver) Friend(ctx context.Context, userID, fragment string) (*store.User, error) {
	friends, err := r.st.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return firstMatch(friends, fragment, userName), nil
}
