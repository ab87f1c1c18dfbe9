// Package mcptools exposes the assistant and the user's records as MCP
// tools so that MCP clients (editors, desktop assistants) can talk to
// accountable over stdio.
//
// Every tool acts on behalf of a single configured user. Tool failures
// are reported as MCP error results rather than protocol errors so the
// calling model can see and react to them.
package mcptools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/nugget/accountable/internal/buildinfo"
	"github.com/nugget/accountable/internal/store"
)

// Chatter answers a free-form utterance. *assistant.Assistant satisfies it.
type Chatter interface {
	ClassifyAndRespond(ctx context.Context, userID, utterance string) (string, error)
}

// Records is the slice of the store the record tools read and write.
type Records interface {
	ListTasks(ctx context.Context, userID string) ([]store.Task, error)
	CreateTask(ctx context.Context, userID, title string, status store.TaskStatus, priority store.Priority) (*store.Task, error)
	CompleteTask(ctx context.Context, id int64) error
	GetTask(ctx context.Context, id int64) (*store.Task, error)
	ListGoals(ctx context.Context, userID string) ([]store.Goal, error)
	ListHabits(ctx context.Context, userID string) ([]store.Habit, error)
}

// Tools holds the dependencies shared by every tool handler.
type Tools struct {
	chat    Chatter
	records Records
	userID  string
	logger  *slog.Logger
}

// New creates the tool set for userID.
func New(chat Chatter, records Records, userID string, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		chat:    chat,
		records: records,
		userID:  userID,
		logger:  logger.With("component", "mcp"),
	}
}

// Register adds every tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(t.chatDefinition(), t.handleChat)
	s.AddTool(t.listTasksDefinition(), t.handleListTasks)
	s.AddTool(t.addTaskDefinition(), t.handleAddTask)
	s.AddTool(t.completeTaskDefinition(), t.handleCompleteTask)
	s.AddTool(t.listGoalsDefinition(), t.handleListGoals)
	s.AddTool(t.listHabitsDefinition(), t.handleListHabits)
}

// NewServer creates an MCP server with the tool set registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"accountable",
		buildinfo.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	t.Register(s)
	return s
}

// ServeStdio runs the MCP server on stdin/stdout until the client
// disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `accountable is a personal productivity assistant that tracks tasks, goals, habits and friends.
Use "chat" for anything phrased in natural language: it understands commands such as
"add task buy milk", "I finished the laundry" or "what is Sam working on" and otherwise
answers conversationally. Use the list_* tools to read records directly.`
