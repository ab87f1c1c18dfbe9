package store

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Task statuses.
const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Priority ranks a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single to-do item.
type Task struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Priority  Priority   `json:"priority"`
	CreatedAt time.Time  `json:"created_at"`
}

// Goal is a longer-running objective tracked by percentage.
type Goal struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// Complete reports whether the goal counts as accomplished.
func (g Goal) Complete() bool {
	return g.Progress >= 100
}

// Subgoal is a step toward a goal.
type Subgoal struct {
	ID        int64  `json:"id"`
	GoalID    int64  `json:"goal_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Credits   int    `json:"credits"`
}

// Habit is a recurring activity with a completion log.
type Habit struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Streak    int       `json:"streak"`
	Frequency string    `json:"frequency"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestStatus is the state of a friend request.
type RequestStatus string

// Friend request states.
const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// IncomingRequest is a pending friend request joined with its sender.
type IncomingRequest struct {
	RequestID int64     `json:"request_id"`
	From      User      `json:"from"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a direct message between two users.
type Message struct {
	ID         int64     `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Body       string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Message directions relative to the listing user.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// MessageView is a message as seen by one participant.
type MessageView struct {
	ID          int64     `json:"id"`
	ContactName string    `json:"contact_name"`
	Body        string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
	Direction   string    `json:"type"`
}

// ChatTurn is one utterance and the reply it received.
type ChatTurn struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Utterance string    `json:"user_message"`
	Reply     string    `json:"ai_response"`
	CreatedAt time.Time `json:"timestamp"`
}

// SessionSummary describes a chat session for listings.
type SessionSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Turns     int       `json:"turns"`
}
