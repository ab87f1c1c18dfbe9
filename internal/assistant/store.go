package assistant

import (
	"context"

	"github.com/nugget/accountable/internal/store"
)

// Store is the subset of the record store the assistant reads and
// mutates. *store.Store implements it.
type Store interface {
	CreateTask(ctx context.Context, userID, title string, status store.TaskStatus, priority store.Priority) (*store.Task, error)
	PendingTasks(ctx context.Context, userID string) ([]store.Task, error)
	CompleteTask(ctx context.Context, id int64) error

	CreateGoal(ctx context.Context, userID, title string) (*store.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]store.Goal, error)
	IncompleteGoals(ctx context.Context, userID string) ([]store.Goal, error)
	SetGoalProgress(ctx context.Context, id int64, progress int) error

	CreateSubgoal(ctx context.Context, goalID int64, title string, credits int) (*store.Subgoal, error)
	UserSubgoals(ctx context.Context, userID string) ([]store.Subgoal, error)
	ToggleSubgoal(ctx context.Context, goalID, subgoalID int64) (bool, error)

	CreateHabit(ctx context.Context, userID, name, frequency string) (*store.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]store.Habit, error)
	LogHabit(ctx context.Context, habitID int64, date string) (bool, error)

	GetUser(ctx context.Context, id string) (*store.User, error)
	ListFriends(ctx context.Context, userID string) ([]store.User, error)
	SendMessage(ctx context.Context, fromID, toID, body string) (*store.Message, error)

	AppendTurn(ctx context.Context, userID, sessionID, utterance, reply string) (*store.ChatTurn, error)
	RecentTurns(ctx context.Context, userID string, n int) ([]store.ChatTurn, error)
}

// SessionStore tracks each user's active chat session.
// *opstate.Store implements it.
type SessionStore interface {
	CurrentSession(ctx context.Context, userID string) (string, error)
	SetCurrentSession(ctx context.Context, userID, sessionID string) error
	ClearCurrentSession(ctx context.Context, userID string) error
}
