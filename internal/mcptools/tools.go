package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nugget/accountable/internal/store"
)

func (t *Tools) chatDefinition() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription("Send a message to the assistant. Commands like adding tasks, goals, subgoals and habits, "+
			"marking things done, asking about a friend or messaging a friend are carried out; anything else gets a conversational reply."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("What the user said, e.g. 'add task call the dentist'"),
		),
	)
}

func (t *Tools) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg := strings.TrimSpace(req.GetString("message", ""))
	if msg == "" {
		return mcp.NewToolResultError("'message' is required"), nil
	}
	reply, err := t.chat.ClassifyAndRespond(ctx, t.userID, msg)
	if err != nil {
		t.logger.Error("chat tool failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func (t *Tools) listTasksDefinition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List the user's tasks, newest first."),
		mcp.WithBoolean("include_completed",
			mcp.Description("Include completed tasks (default: false)"),
		),
	)
}

func (t *Tools) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := t.records.ListTasks(ctx, t.userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}
	all := req.GetBool("include_completed", false)

	var b strings.Builder
	n := 0
	for _, task := range tasks {
		if !all && task.Status != store.TaskPending {
			continue
		}
		fmt.Fprintf(&b, "#%d [%s] %s (%s priority)\n", task.ID, task.Status, task.Title, task.Priority)
		n++
	}
	if n == 0 {
		return mcp.NewToolResultText("No tasks."), nil
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (t *Tools) addTaskDefinition() mcp.Tool {
	return mcp.NewTool("add_task",
		mcp.WithDescription("Add a pending task."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("priority",
			mcp.Description("low, medium or high (default: medium)"),
			mcp.Enum("low", "medium", "high"),
		),
	)
}

func (t *Tools) handleAddTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	priority := store.Priority(req.GetString("priority", string(store.PriorityMedium)))
	if !priority.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown priority %q", priority)), nil
	}

	task, err := t.records.CreateTask(ctx, t.userID, title, store.TaskPending, priority)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added task #%d: %s", task.ID, task.Title)), nil
}

func (t *Tools) completeTaskDefinition() mcp.Tool {
	return mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed by id. Use list_tasks to find ids."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)
}

func (t *Tools) handleCompleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive task id"), nil
	}

	task, err := t.records.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && task.UserID != t.userID) {
		return mcp.NewToolResultError(fmt.Sprintf("task #%d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load task: %v", err)), nil
	}
	if err := t.records.CompleteTask(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Completed task #%d: %s", id, task.Title)), nil
}

func (t *Tools) listGoalsDefinition() mcp.Tool {
	return mcp.NewTool("list_goals",
		mcp.WithDescription("List the user's goals with progress percentages."),
	)
}

func (t *Tools) handleListGoals(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goals, err := t.records.ListGoals(ctx, t.userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list goals: %v", err)), nil
	}
	if len(goals) == 0 {
		return mcp.NewToolResultText("No goals."), nil
	}
	lines := make([]string, 0, len(goals))
	for _, g := range goals {
		lines = append(lines, fmt.Sprintf("#%d %s (%d%%)", g.ID, g.Title, g.Progress))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (t *Tools) listHabitsDefinition() mcp.Tool {
	return mcp.NewTool("list_habits",
		mcp.WithDescription("List the user's habits with their current streaks."),
	)
}

func (t *Tools) handleListHabits(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	habits, err := t.records.ListHabits(ctx, t.userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list habits: %v", err)), nil
	}
	if len(habits) == 0 {
		return mcp.NewToolResultText("No habits."), nil
	}
	lines := make([]string, 0, len(habits))
	for _, h := range habits {
		lines = append(lines, fmt.Sprintf("#%d %s, %s, streak %d", h.ID, h.Name, h.Frequency, h.Streak))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
