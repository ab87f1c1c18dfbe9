package api

import (
	"net/http"
	"strings"

	"github.com/nugget/accountable/internal/store"
)

// recentLogDays is how many habit completions the listing includes.
const recentLogDays = 7

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"tasks": nonNil(tasks)})
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string           `json:"user_id"`
		Title    string           `json:"title"`
		Status   store.TaskStatus `json:"status"`
		Priority store.Priority   `json:"priority"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.errorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority != "" && !req.Priority.Valid() {
		s.errorResponse(w, http.StatusBadRequest, "priority must be low, medium, or high")
		return
	}
	if req.Status != "" && req.Status != store.TaskPending && req.Status != store.TaskCompleted {
		s.errorResponse(w, http.StatusBadRequest, "status must be pending or completed")
		return
	}

	task, err := s.store.CreateTask(r.Context(), s.userID(r, req.UserID), req.Title, req.Status, req.Priority)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]int64{"task_id": task.ID})
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.CompleteTask(r.Context(), id); err != nil {
		s.storeError(w, err, "Task not found")
		return
	}
	s.message(w, "Task completed successfully")
}

func (s *Server) handleGoalList(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"goals": nonNil(goals)})
}

func (s *Server) handleGoalCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Title  string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.errorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	goal, err := s.store.CreateGoal(r.Context(), s.userID(r, req.UserID), req.Title)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]int64{"goal_id": goal.ID})
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Progress int `json:"progress"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetGoalProgress(r.Context(), id, req.Progress); err != nil {
		s.storeError(w, err, "Goal not found")
		return
	}
	s.message(w, "Goal progress updated successfully")
}

func (s *Server) handleSubgoalList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	subs, err := s.store.ListSubgoals(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"subGoals": nonNil(subs)})
}

func (s *Server) handleSubgoalCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Title   string `json:"title"`
		Credits int    `json:"credits"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.errorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	sg, err := s.store.CreateSubgoal(r.Context(), id, req.Title, req.Credits)
	if err != nil {
		s.storeError(w, err, "Goal not found")
		return
	}
	s.ok(w, map[string]int64{"subgoal_id": sg.ID})
}

func (s *Server) handleSubgoalToggle(w http.ResponseWriter, r *http.Request) {
	goalID, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	subID, ok := s.pathInt(w, r, "sid")
	if !ok {
		return
	}
	completed, err := s.store.ToggleSubgoal(r.Context(), goalID, subID)
	if err != nil {
		s.storeError(w, err, "Sub-goal not found")
		return
	}
	s.ok(w, map[string]any{"message": "Sub-goal updated successfully", "completed": completed})
}

func (s *Server) handleGoalNotesGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	notes, err := s.store.GoalNotes(r.Context(), id)
	if err != nil {
		s.storeError(w, err, "Goal not found")
		return
	}
	s.ok(w, map[string]string{"notes": notes})
}

func (s *Server) handleGoalNotesSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetGoalNotes(r.Context(), id, req.Notes); err != nil {
		s.storeError(w, err, "Goal not found")
		return
	}
	s.message(w, "Notes saved successfully")
}

// habitView decorates a habit with today's status and recent logs.
type habitView struct {
	store.Habit
	CompletedToday bool     `json:"completed_today"`
	RecentLogs     []string `json:"recent_logs"`
}

func (s *Server) handleHabitList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	habits, err := s.store.ListHabits(ctx, s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}

	today := s.now().Format(store.DateFormat)
	views := make([]habitView, 0, len(habits))
	for _, h := range habits {
		logs, err := s.store.RecentCompletions(ctx, h.ID, recentLogDays)
		if err != nil {
			s.storeError(w, err, "")
			return
		}
		v := habitView{Habit: h, RecentLogs: nonNil(logs)}
		v.CompletedToday = len(logs) > 0 && logs[0] == today
		views = append(views, v)
	}
	s.ok(w, map[string]any{"habits": views})
}

func (s *Server) handleHabitCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		Frequency string `json:"frequency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	h, err := s.store.CreateHabit(r.Context(), s.userID(r, req.UserID), req.Name, req.Frequency)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]int64{"habit_id": h.ID})
}

func (s *Server) handleHabitDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteHabit(r.Context(), id); err != nil {
		s.storeError(w, err, "Habit not found")
		return
	}
	s.message(w, "Habit deleted successfully")
}

func (s *Server) handleHabitLog(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	logged, err := s.store.LogHabit(r.Context(), id, s.now().Format(store.DateFormat))
	if err != nil {
		s.storeError(w, err, "Habit not found")
		return
	}
	if !logged {
		s.errorResponse(w, http.StatusBadRequest, "Already logged today")
		return
	}
	s.message(w, "Habit logged successfully")
}

// nonNil keeps empty collections rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
