package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nugget/accountable/internal/intent"
	"github.com/nugget/accountable/internal/notify"
	"github.com/nugget/accountable/internal/store"
)

// reminderPrefix marks stored reminder messages.
const reminderPrefix = "Reminder: "

// Dispatcher executes classified intents against the store and renders
// the user-facing confirmation.
type Dispatcher struct {
	st       Store
	resolve  *Resolver
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. A nil notifier disables push
// notifications.
func NewDispatcher(st Store, notifier notify.Notifier, logger *slog.Logger) *Dispatcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		st:       st,
		resolve:  NewResolver(st),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch performs in on behalf of userID. Not-found outcomes are
// reported in the reply; the error is reserved for store failures.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, in intent.Intent) (string, error) {
	switch in := in.(type) {
	case intent.AddSubgoal:
		return d.addSubgoal(ctx, userID, in)
	case intent.AddGoal:
		if _, err := d.st.CreateGoal(ctx, userID, in.Title); err != nil {
			return "", err
		}
		return fmt.Sprintf("Awesome! I've set '%s' as your goal. Let's work towards it together!", in.Title), nil
	case intent.AddTask:
		if _, err := d.st.CreateTask(ctx, userID, in.Title, store.TaskPending, store.PriorityMedium); err != nil {
			return "", err
		}
		return fmt.Sprintf("Great! I've added '%s' to your tasks. You've got this!", in.Title), nil
	case intent.Complete:
		return d.complete(ctx, userID, in.Item)
	case intent.FriendQuery:
		return d.friendQuery(ctx, userID, in)
	case intent.SendMessage:
		return d.sendMessage(ctx, userID, in)
	case intent.AddHabit:
		if _, err := d.st.CreateHabit(ctx, userID, in.Name, in.Frequency); err != nil {
			return "", err
		}
		return fmt.Sprintf("Perfect! I've added '%s' to your habits. Consistency is key!", in.Name), nil
	default:
		return "", fmt.Errorf("unsupported intent %T", in)
	}
}

func (d *Dispatcher) addSubgoal(ctx context.Context, userID string, in intent.AddSubgoal) (string, error) {
	goals, err := d.st.ListGoals(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(goals) == 0 {
		return "You don't have any goals yet. Add a goal first, then try 'Add subgoal [name] to [goal]'.", nil
	}

	target := &goals[0]
	if in.GoalRef != "" {
		g, err := d.resolve.Goal(ctx, userID, in.GoalRef)
		if err != nil {
			return "", err
		}
		if g != nil {
			target = g
		}
	}

	if _, err := d.st.CreateSubgoal(ctx, target.ID, in.Text, 1); err != nil {
		return "", err
	}
	return fmt.Sprintf("Great! Added '%s' to your '%s' goal!", in.Text, target.Title), nil
}

// complete searches pending tasks, habits, incomplete goals and
// subgoals, in that order, and acts on the first match.
func (d *Dispatcher) complete(ctx context.Context, userID, item string) (string, error) {
	task, err := d.resolve.PendingTask(ctx, userID, item)
	if err != nil {
		return "", err
	}
	if task != nil {
		if err := d.st.CompleteTask(ctx, task.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Great job! Marked '%s' as complete!", task.Title), nil
	}

	habit, err := d.resolve.Habit(ctx, userID, item)
	if err != nil {
		return "", err
	}
	if habit != nil {
		now := d.now()
		logged, err := d.st.LogHabit(ctx, habit.ID, now.Format(store.DateFormat))
		if err != nil {
			return "", err
		}
		if !logged {
			return fmt.Sprintf("You've already completed '%s' today (%s)!", habit.Name, now.Format("Monday")), nil
		}
		return fmt.Sprintf("Perfect! Marked '%s' as done for %s!", habit.Name, now.Format("Monday")), nil
	}

	goal, err := d.resolve.IncompleteGoal(ctx, userID, item)
	if err != nil {
		return "", err
	}
	if goal != nil {
		if err := d.st.SetGoalProgress(ctx, goal.ID, 100); err != nil {
			return "", err
		}
		return fmt.Sprintf("Awesome! Marked '%s' as accomplished!", goal.Title), nil
	}

	sg, err := d.resolve.Subgoal(ctx, userID, item)
	if err != nil {
		return "", err
	}
	if sg != nil {
		done, err := d.st.ToggleSubgoal(ctx, sg.GoalID, sg.ID)
		if err != nil {
			return "", err
		}
		if done {
			return fmt.Sprintf("Excellent! Marked '%s' as complete!", sg.Title), nil
		}
		return fmt.Sprintf("Okay, marked '%s' as not complete yet.", sg.Title), nil
	}

	return fmt.Sprintf("Couldn't find '%s' in your tasks, habits, goals, or subgoals.", item), nil
}

func friendNotFound(name string) string {
	return fmt.Sprintf("I couldn't find a friend named '%s' in your friends list.", name)
}

func (d *Dispatcher) friendQuery(ctx context.Context, userID string, in intent.FriendQuery) (string, error) {
	friend, err := d.resolve.Friend(ctx, userID, in.Friend)
	if err != nil {
		return "", err
	}
	if friend == nil {
		return friendNotFound(in.Friend), nil
	}

	var tasks []store.Task
	if in.Tasks {
		if tasks, err = d.st.PendingTasks(ctx, friend.ID); err != nil {
			return "", err
		}
	}
	var goals []store.Goal
	if in.Goals {
		if goals, err = d.st.IncompleteGoals(ctx, friend.ID); err != nil {
			return "", err
		}
	}

	switch {
	case in.Tasks && in.Goals:
		return combinedSummary(friend.Name, tasks, goals), nil
	case in.Goals:
		if len(goals) == 0 {
			return fmt.Sprintf("%s has no active goals right now.", friend.Name), nil
		}
		return fmt.Sprintf("%s has %d active goals: %s", friend.Name, len(goals), goalList(goals, 3)), nil
	default:
		if len(tasks) == 0 {
			return fmt.Sprintf("%s has no pending tasks right now.", friend.Name), nil
		}
		return fmt.Sprintf("%s has %d pending tasks: %s", friend.Name, len(tasks), taskList(tasks, 5)), nil
	}
}

func combinedSummary(name string, tasks []store.Task, goals []store.Goal) string {
	parts := make([]string, 0, 2)
	if len(tasks) > 0 {
		parts = append(parts, fmt.Sprintf("%d pending tasks: %s", len(tasks), taskList(tasks, 3)))
	} else {
		parts = append(parts, "no pending tasks")
	}
	if len(goals) > 0 {
		parts = append(parts, fmt.Sprintf("%d active goals: %s", len(goals), goalList(goals, 3)))
	} else {
		parts = append(parts, "no active goals")
	}
	return fmt.Sprintf("%s has %s.", name, strings.Join(parts, " and "))
}

// taskList joins up to limit titles, with an ellipsis when truncated.
func taskList(tasks []store.Task, limit int) string {
	titles := make([]string, 0, min(len(tasks), limit))
	for _, t := range tasks[:min(len(tasks), limit)] {
		titles = append(titles, t.Title)
	}
	return joinTruncated(titles, len(tasks) > limit)
}

func goalList(goals []store.Goal, limit int) string {
	titles := make([]string, 0, min(len(goals), limit))
	for _, g := range goals[:min(len(goals), limit)] {
		titles = append(titles, fmt.Sprintf("%s (%d%%)", g.Title, g.Progress))
	}
	return joinTruncated(titles, len(goals) > limit)
}

func joinTruncated(items []string, truncated bool) string {
	s := strings.Join(items, ", ")
	if truncated {
		s += "..."
	}
	return s
}

func (d *Dispatcher) sendMessage(ctx context.Context, userID string, in intent.SendMessage) (string, error) {
	friend, err := d.resolve.Friend(ctx, userID, in.Friend)
	if err != nil {
		return "", err
	}
	if friend == nil {
		return friendNotFound(in.Friend), nil
	}

	body := in.Body
	evType := notify.EventMessage
	if in.Reminder {
		body = reminderPrefix + in.Body
		evType = notify.EventReminder
	}

	msg, err := d.st.SendMessage(ctx, userID, friend.ID, body)
	if err != nil {
		return "", err
	}
	d.push(ctx, userID, evType, msg)

	if in.Reminder {
		return fmt.Sprintf("Reminder sent to %s: '%s'", friend.Name, in.Body), nil
	}
	return fmt.Sprintf("Message sent to %s: '%s'", friend.Name, in.Body), nil
}

// push delivers a notification for msg. Failures are logged and never
// affect the reply; the stored message is authoritative.
func (d *Dispatcher) push(ctx context.Context, userID, evType string, msg *store.Message) {
	ev := notify.Event{
		Type:       evType,
		MessageID:  msg.ID,
		FromUserID: userID,
		ToUserID:   msg.ToUserID,
		Body:       msg.Body,
		At:         msg.CreatedAt,
	}
	if sender, err := d.st.GetUser(ctx, userID); err == nil {
		ev.FromName = sender.Name
	}
	if err := d.notifier.Notify(ctx, ev); err != nil {
		d.logger.Warn("message notification failed",
			"to", msg.ToUserID, "type", evType, "error", err)
	}
}
