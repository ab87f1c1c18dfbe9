package assistant

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/nugget/accountable/internal/llm"
	"github.com/nugget/accountable/internal/notify"
	"github.com/nugget/accountable/internal/opstate"
	"github.com/nugget/accountable/internal/store"
)

const testUser = "u1"

// monday is 2026-03-02 10:30 UTC.
var monday = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

type fakeCompleter struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type fakeNotifier struct {
	events []notify.Event
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, ev notify.Event) error {
	f.events = append(f.events, ev)
	return f.err
}

type harness struct {
	a     *Assistant
	st    *store.Store
	llm   *fakeCompleter
	notif *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	st, err := store.New(db)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	sessions, err := opstate.NewStore(db)
	if err != nil {
		t.Fatalf("opstate.NewStore: %v", err)
	}

	h := &harness{st: st, llm: &fakeCompleter{}, notif: &fakeNotifier{}}
	h.a = New(slog.New(slog.NewTextHandler(io.Discard, nil)), st, sessions, h.llm, h.notif)
	h.a.setClock(func() time.Time { return monday })
	return h
}

func (h *harness) say(t *testing.T, utterance string) string {
	t.Helper()
	reply, err := h.a.ClassifyAndRespond(context.Background(), testUser, utterance)
	if err != nil {
		t.Fatalf("ClassifyAndRespond(%q): %v", utterance, err)
	}
	return reply
}

func (h *harness) addFriend(t *testing.T, id, name string) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []store.User{
		{ID: testUser, Email: "me@example.com", Name: "Me"},
		{ID: id, Email: id + "@example.com", Name: name},
	} {
		if _, err := h.st.UpsertUser(ctx, u); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}
	reqID, err := h.st.SendFriendRequest(ctx, testUser, id)
	if err != nil {
		t.Fatalf("SendFriendRequest: %v", err)
	}
	if err := h.st.RespondFriendRequest(ctx, reqID, store.RequestAccepted); err != nil {
		t.Fatalf("RespondFriendRequest: %v", err)
	}
}

func TestAddTask(t *testing.T) {
	h := newHarness(t)

	got := h.say(t, "add buy groceries to my tasks")
	if want := "Great! I've added 'buy groceries' to your tasks. You've got this!"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}

	tasks, err := h.st.PendingTasks(context.Background(), testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "buy groceries" || tasks[0].Status != store.TaskPending {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestAddHabitAndGoal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if got, want := h.say(t, "new habit long run weekly"), "Perfect! I've added 'long run' to your habits. Consistency is key!"; got != want {
		t.Errorf("habit reply = %q", got)
	}
	habits, _ := h.st.ListHabits(ctx, testUser)
	if len(habits) != 1 || habits[0].Frequency != "weekly" {
		t.Errorf("habits = %+v", habits)
	}

	if got, want := h.say(t, "my goal is run a marathon"), "Awesome! I've set 'run a marathon' as your goal. Let's work towards it together!"; got != want {
		t.Errorf("goal reply = %q", got)
	}
	goals, _ := h.st.ListGoals(ctx, testUser)
	if len(goals) != 1 || goals[0].Progress != 0 {
		t.Errorf("goals = %+v", goals)
	}
}

func TestSubgoalAddAndToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	novel, err := h.st.CreateGoal(ctx, testUser, "Finish my novel")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.st.CreateGoal(ctx, testUser, "Get fit"); err != nil {
		t.Fatal(err)
	}

	got := h.say(t, "add subgoal write chapter 1 to my novel goal")
	if want := "Great! Added 'write chapter 1' to your 'Finish my novel' goal!"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	subs, _ := h.st.ListSubgoals(ctx, novel.ID)
	if len(subs) != 1 || subs[0].Title != "write chapter 1" || subs[0].Completed || subs[0].Credits != 1 {
		t.Fatalf("subgoals = %+v", subs)
	}

	if got, want := h.say(t, "mark write chapter 1 as done"), "Excellent! Marked 'write chapter 1' as complete!"; got != want {
		t.Errorf("first completion = %q", got)
	}
	subs, _ = h.st.ListSubgoals(ctx, novel.ID)
	if !subs[0].Completed {
		t.Error("subgoal should be completed after first completion")
	}

	h.say(t, "mark write chapter 1 as done")
	subs, _ = h.st.ListSubgoals(ctx, novel.ID)
	if subs[0].Completed {
		t.Error("second completion should restore the original flag")
	}
}

func TestSubgoal_UnmatchedRefUsesNewestGoal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.st.CreateGoal(ctx, testUser, "Finish my novel"); err != nil {
		t.Fatal(err)
	}
	fit, err := h.st.CreateGoal(ctx, testUser, "Get fit")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := h.say(t, "add subgoal stretch to my yoga goal"), "Great! Added 'stretch' to your 'Get fit' goal!"; got != want {
		t.Errorf("reply = %q", got)
	}
	if got, want := h.say(t, "Add sub goal outline plot"), "Great! Added 'outline plot' to your 'Get fit' goal!"; got != want {
		t.Errorf("reply = %q", got)
	}
	subs, _ := h.st.ListSubgoals(ctx, fit.ID)
	if len(subs) != 2 {
		t.Errorf("subgoals under newest goal = %d, want 2", len(subs))
	}
}

func TestSubgoal_NoGoals(t *testing.T) {
	h := newHarness(t)

	got := h.say(t, "add subgoal write chapter 1 to my novel goal")
	if !strings.Contains(got, "Add subgoal [name] to [goal]") {
		t.Errorf("reply = %q", got)
	}
	subs, _ := h.st.UserSubgoals(context.Background(), testUser)
	if len(subs) != 0 {
		t.Errorf("subgoals created without a goal: %+v", subs)
	}
}

func TestCompletionPrecedence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	task, _ := h.st.CreateTask(ctx, testUser, "Do laundry", "", "")
	habit, _ := h.st.CreateHabit(ctx, testUser, "Laundry day", "")
	goal, _ := h.st.CreateGoal(ctx, testUser, "Laundry mastery")

	if got, want := h.say(t, "mark the laundry task done"), "Great job! Marked 'Do laundry' as complete!"; got != want {
		t.Errorf("first = %q, want %q", got, want)
	}
	if got, _ := h.st.GetTask(ctx, task.ID); got.Status != store.TaskCompleted {
		t.Errorf("task status = %q", got.Status)
	}

	if got, want := h.say(t, "mark the laundry task done"), "Perfect! Marked 'Laundry day' as done for Monday!"; got != want {
		t.Errorf("second = %q, want %q", got, want)
	}
	if ok, _ := h.st.HabitLoggedOn(ctx, habit.ID, "2026-03-02"); !ok {
		t.Error("habit not logged for today")
	}

	if got, want := h.say(t, "mark the laundry task done"), "You've already completed 'Laundry day' today (Monday)!"; got != want {
		t.Errorf("third = %q, want %q", got, want)
	}
	if g, _ := h.st.GetGoal(ctx, goal.ID); g.Progress != 0 {
		t.Errorf("goal progress = %d, habit should have shadowed it", g.Progress)
	}
}

func TestCompletion_GoalCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	goal, _ := h.st.CreateGoal(ctx, testUser, "Learn Spanish")

	r := NewResolver(h.st)
	for _, frag := range []string{"spanish", "SPANISH", "  Learn  "} {
		got, err := r.Goal(ctx, testUser, frag)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID != goal.ID {
			t.Errorf("Goal(%q) = %+v", frag, got)
		}
	}

	if got, want := h.say(t, "I'm done with spanish"), "Awesome! Marked 'Learn Spanish' as accomplished!"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	g, _ := h.st.GetGoal(ctx, goal.ID)
	if g.Progress != 100 {
		t.Errorf("progress = %d, want 100", g.Progress)
	}
}

func TestCompletion_NothingMatches(t *testing.T) {
	h := newHarness(t)
	got := h.say(t, "the presentation is done")
	if want := "Couldn't find 'presentation' in your tasks, habits, goals, or subgoals."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
}

func TestCompletion_TriggerWithoutItemFallsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.st.CreateTask(ctx, testUser, "market research", "", ""); err != nil {
		t.Fatal(err)
	}
	h.llm.replies = []string{"Which one did you finish?"}

	if got := h.say(t, "mark as done"); got != "Which one did you finish?" {
		t.Errorf("reply = %q", got)
	}
	if len(h.llm.calls) != 1 {
		t.Errorf("completer calls = %d, want 1", len(h.llm.calls))
	}
	tasks, err := h.st.ListTasks(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Status != store.TaskPending {
		t.Errorf("tasks = %+v, want market research still pending", tasks)
	}
}

func TestResolver_FirstMatchInListOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.st.CreateTask(ctx, testUser, "read chapter one", "", "")
	newest, _ := h.st.CreateTask(ctx, testUser, "read chapter two", "", "")

	r := NewResolver(h.st)
	for range 3 {
		got, err := r.PendingTask(ctx, testUser, "read")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID != newest.ID {
			t.Fatalf("PendingTask = %+v, want newest task", got)
		}
	}

	if got, _ := r.PendingTask(ctx, testUser, "   "); got != nil {
		t.Errorf("blank fragment matched %+v", got)
	}
}

func TestFriendQuery_NotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got := h.say(t, "tell me tasks of alice")
	if want := "I couldn't find a friend named 'alice' in your friends list."; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	msgs, _ := h.st.ListMessages(ctx, testUser)
	tasks, _ := h.st.ListTasks(ctx, testUser)
	if len(msgs) != 0 || len(tasks) != 0 {
		t.Errorf("records changed: messages=%d tasks=%d", len(msgs), len(tasks))
	}
}

func TestFriendQuery_Summaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addFriend(t, "alice-id", "Alice")

	if got, want := h.say(t, "tell me tasks of alice"), "Alice has no pending tasks right now."; got != want {
		t.Errorf("empty tasks = %q", got)
	}

	h.st.CreateTask(ctx, "alice-id", "walk dog", "", "")
	h.st.CreateTask(ctx, "alice-id", "file taxes", "", "")
	g, _ := h.st.CreateGoal(ctx, "alice-id", "Run 10k")
	h.st.SetGoalProgress(ctx, g.ID, 40)

	if got, want := h.say(t, "tell me tasks of alice"), "Alice has 2 pending tasks: file taxes, walk dog"; got != want {
		t.Errorf("tasks = %q, want %q", got, want)
	}
	if got, want := h.say(t, "Show me the goals of my friend Alice?"), "Alice has 1 active goals: Run 10k (40%)"; got != want {
		t.Errorf("goals = %q, want %q", got, want)
	}
	if got, want := h.say(t, "what are the tasks and goals of alice"),
		"Alice has 2 pending tasks: file taxes, walk dog and 1 active goals: Run 10k (40%)."; got != want {
		t.Errorf("combined = %q, want %q", got, want)
	}
}

func TestSendMessageAndReminder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addFriend(t, "alice-id", "Alice")

	if got, want := h.say(t, "send good luck today to alice"), "Message sent to Alice: 'good luck today'"; got != want {
		t.Errorf("send reply = %q, want %q", got, want)
	}

	h.notif.err = errors.New("broker down")
	if got, want := h.say(t, "remind my friend Alice to drink water"), "Reminder sent to Alice: 'drink water'"; got != want {
		t.Errorf("remind reply = %q, want %q", got, want)
	}

	received, err := h.st.ListMessages(ctx, "alice-id")
	if err != nil {
		t.Fatal(err)
	}
	var bodies []string
	for _, m := range received {
		bodies = append(bodies, m.Body)
	}
	if diff := cmp.Diff([]string{"Reminder: drink water", "good luck today"}, bodies); diff != "" {
		t.Errorf("stored bodies (-want +got):\n%s", diff)
	}

	if len(h.notif.events) != 2 {
		t.Fatalf("events = %d, want 2", len(h.notif.events))
	}
	ev := h.notif.events[0]
	if ev.Type != notify.EventMessage || ev.ToUserID != "alice-id" || ev.FromName != "Me" {
		t.Errorf("event = %+v", ev)
	}
	if h.notif.events[1].Type != notify.EventReminder {
		t.Errorf("second event type = %q", h.notif.events[1].Type)
	}
}

func TestMessageWithoutVerbFallsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addFriend(t, "alice-id", "Alice")
	h.llm.replies = []string{"Keep it short and friendly."}

	if got := h.say(t, "what message should I write to my boss"); got != "Keep it short and friendly." {
		t.Errorf("reply = %q", got)
	}
	if len(h.llm.calls) != 1 {
		t.Errorf("completer calls = %d, want 1", len(h.llm.calls))
	}
	received, err := h.st.ListMessages(ctx, "alice-id")
	if err != nil {
		t.Fatal(err)
	}
	if len(received) != 0 || len(h.notif.events) != 0 {
		t.Errorf("messages = %d, events = %d, want none", len(received), len(h.notif.events))
	}
}

func TestFallback_PromptUsesOnlyRealRecords(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, title := range []string{"water plants", "pay rent", "call mom", "book dentist"} {
		h.st.CreateTask(ctx, testUser, title, "", "")
	}
	done, _ := h.st.CreateGoal(ctx, testUser, "Run a marathon")
	h.st.SetGoalProgress(ctx, done.ID, 100)
	h.st.CreateGoal(ctx, testUser, "Learn piano")

	h.llm.replies = []string{"You're doing great!"}
	if got := h.say(t, "what should I focus on"); got != "You're doing great!" {
		t.Errorf("reply = %q", got)
	}

	if len(h.llm.calls) != 1 {
		t.Fatalf("completer calls = %d", len(h.llm.calls))
	}
	msgs := h.llm.calls[0]
	system := msgs[0].Content
	for _, want := range []string{
		"User has 4 pending tasks: book dentist, call mom, pay rent",
		"User has 1 incomplete goals: Learn piano",
		"Current date and time: Monday, March 02, 2026 at 10:30 AM",
		ToneBalanced,
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q:\n%s", want, system)
		}
	}
	for _, absent := range []string{"water plants", "Run a marathon"} {
		if strings.Contains(system, absent) {
			t.Errorf("system prompt mentions %q", absent)
		}
	}
	if last := msgs[len(msgs)-1]; last.Role != llm.RoleUser || last.Content != "what should I focus on" {
		t.Errorf("last message = %+v", last)
	}
}

func TestFallback_HistoryAndTone(t *testing.T) {
	h := newHarness(t)
	h.llm.replies = []string{"one", "two", "three", "four"}

	h.say(t, "hey there")
	h.say(t, "thanks, that's cool")
	h.say(t, "awesome, what next")
	h.say(t, "what should I focus on")

	msgs := h.llm.calls[3]
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "thanks, that's cool"},
		{Role: llm.RoleAssistant, Content: "two"},
		{Role: llm.RoleUser, Content: "awesome, what next"},
		{Role: llm.RoleAssistant, Content: "three"},
		{Role: llm.RoleUser, Content: "what should I focus on"},
	}
	if diff := cmp.Diff(want, msgs[1:]); diff != "" {
		t.Errorf("transcript (-want +got):\n%s", diff)
	}
	if !strings.Contains(msgs[0].Content, ToneCasual) {
		t.Errorf("system prompt lacks casual tone:\n%s", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "no pending tasks or incomplete goals") {
		t.Errorf("system prompt should state there are no records:\n%s", msgs[0].Content)
	}
}

func TestFallback_Degraded(t *testing.T) {
	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"provider error", &fakeCompleter{err: errors.New("connection refused")}},
		{"empty reply", &fakeCompleter{replies: []string{"   "}}},
		{"no provider", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallback(tt.c, slog.New(slog.NewTextHandler(io.Discard, nil)))
			got, ok := f.Respond(context.Background(), Context{Now: monday, Utterance: "hello"})
			if ok || got != DegradedReply {
				t.Errorf("Respond = %q, %v; want degraded reply", got, ok)
			}
		})
	}
}

func TestProviderFailureStillRecorded(t *testing.T) {
	h := newHarness(t)
	h.llm.err = errors.New("timeout")

	if got := h.say(t, "hello there"); got != DegradedReply {
		t.Errorf("reply = %q", got)
	}
	turns, _ := h.st.RecentTurns(context.Background(), testUser, 5)
	if len(turns) != 1 || turns[0].Reply != DegradedReply {
		t.Errorf("turns = %+v", turns)
	}
}

type failingStore struct {
	Store
}

func (failingStore) CreateTask(context.Context, string, string, store.TaskStatus, store.Priority) (*store.Task, error) {
	return nil, errors.New("disk full")
}

func (failingStore) CreateGoal(context.Context, string, string) (*store.Goal, error) {
	panic("boom")
}

func TestDispatchFailuresBecomeErrorReply(t *testing.T) {
	h := newHarness(t)
	sessions := h.a.sessions
	a := New(slog.New(slog.NewTextHandler(io.Discard, nil)), failingStore{h.st}, sessions, nil, nil)

	for _, utterance := range []string{"add buy groceries to my tasks", "Add learn Spanish to my goals"} {
		got, err := a.ClassifyAndRespond(context.Background(), testUser, utterance)
		if err != nil {
			t.Fatalf("ClassifyAndRespond(%q): %v", utterance, err)
		}
		if got != ErrorReply {
			t.Errorf("reply for %q = %q, want ErrorReply", utterance, got)
		}
	}
}

func TestSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.say(t, "add buy groceries to my tasks")
	h.say(t, "add habit meditate")
	first, err := h.a.CurrentSession(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}

	second, err := h.a.NewSession(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatal("NewSession returned the current session id")
	}
	h.say(t, "add task renew passport")

	sessions, err := h.st.ListSessions(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int{}
	for _, s := range sessions {
		got[s.ID] = s.Turns
	}
	if diff := cmp.Diff(map[string]int{first: 2, second: 1}, got); diff != "" {
		t.Errorf("session turns (-want +got):\n%s", diff)
	}
}

func TestForgetSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.say(t, "add task renew passport")
	current, err := h.a.CurrentSession(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}

	if err := h.a.ForgetSession(ctx, testUser, "some-other-session"); err != nil {
		t.Fatal(err)
	}
	if got, _ := h.a.CurrentSession(ctx, testUser); got != current {
		t.Errorf("forgetting another session changed current to %q", got)
	}

	if err := h.st.DeleteSession(ctx, testUser, current); err != nil {
		t.Fatal(err)
	}
	if err := h.a.ForgetSession(ctx, testUser, current); err != nil {
		t.Fatal(err)
	}
	h.say(t, "add habit stretch")
	next, err := h.a.CurrentSession(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if next == current {
		t.Fatal("deleted session was reused")
	}
	sessions, err := h.st.ListSessions(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != next || sessions[0].Turns != 1 {
		t.Errorf("sessions = %+v, want one turn in %s", sessions, next)
	}
}

func TestProactiveCheck(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.a.chance = func() float64 { return 0.1 }
	h.a.pick = func(int) int { return 2 }

	if got, _ := h.a.ProactiveCheck(ctx, testUser); got != "" {
		t.Errorf("no pending tasks: got %q", got)
	}

	h.st.CreateTask(ctx, testUser, "pay rent", "", "")
	if got, _ := h.a.ProactiveCheck(ctx, testUser); got != "How's your productivity today?" {
		t.Errorf("prompt = %q", got)
	}

	h.a.chance = func() float64 { return 0.3 }
	if got, _ := h.a.ProactiveCheck(ctx, testUser); got != "" {
		t.Errorf("above threshold: got %q", got)
	}
}

func TestEstimateTone(t *testing.T) {
	turn := func(s string) store.ChatTurn { return store.ChatTurn{Utterance: s, Reply: "please thank you hey"} }
	tests := []struct {
		name  string
		turns []store.ChatTurn
		want  string
	}{
		{"no history", nil, ToneBalanced},
		{"casual", []store.ChatTurn{turn("hey!"), turn("thanks, cool")}, ToneCasual},
		{"formal", []store.ChatTurn{turn("Could you please help"), turn("thank you")}, ToneFormal},
		{"tie", []store.ChatTurn{turn("hi"), turn("please")}, ToneBalanced},
		{"word boundary", []store.ChatTurn{turn("this is high priority, think it through")}, ToneBalanced},
		{"repeats count once", []store.ChatTurn{turn("hey hey hey"), turn("please, would you")}, ToneFormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTone(tt.turns); got != tt.want {
				t.Errorf("EstimateTone = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEstimateTone_Window(t *testing.T) {
	var turns []store.ChatTurn
	for range 5 {
		turns = append(turns, store.ChatTurn{Utterance: "please"})
	}
	for range personalityWindow {
		turns = append(turns, store.ChatTurn{Utterance: "hey"})
	}
	if got := EstimateTone(turns); got != ToneCasual {
		t.Errorf("EstimateTone = %q, want only the last %d turns considered", got, personalityWindow)
	}
}
