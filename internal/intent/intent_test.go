package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Intent
	}{
		{"subgoal with goal ref", "add subgoal write chapter 1 to my novel goal",
			AddSubgoal{Text: "write chapter 1", GoalRef: "novel"}},
		{"subgoal without ref", "Add sub goal outline plot",
			AddSubgoal{Text: "outline plot"}},
		{"subgoal text containing to", "create subgoal talk to editor to the book goal",
			AddSubgoal{Text: "talk to editor", GoalRef: "book"}},
		{"goal via list anchor", "Add learn Spanish to my goals",
			AddGoal{Title: "learn spanish"}},
		{"goal via my goal is", "my goal is run a marathon",
			AddGoal{Title: "run a marathon"}},
		{"goal via set goal to", "set goal to read 12 books",
			AddGoal{Title: "read 12 books"}},
		{"monthly goal", "add save $500 to my monthly goals",
			AddGoal{Title: "save $500"}},
		{"task end anchor", "add buy groceries to my tasks",
			AddTask{Title: "buy groceries"}},
		{"task list anchor", "put call the plumber on my to-do",
			AddTask{Title: "call the plumber"}},
		{"task keyword", "add task renew passport",
			AddTask{Title: "renew passport"}},
		{"task add to list", "add to list pick up dry cleaning",
			AddTask{Title: "pick up dry cleaning"}},
		{"task verb led", "add email the landlord",
			AddTask{Title: "email the landlord"}},
		{"task gerund", "add writing the report",
			AddTask{Title: "writing the report"}},
		{"task doubled gerund", "add getting new tires",
			AddTask{Title: "getting new tires"}},
		{"complete as done", "mark write chapter 1 as done",
			Complete{Item: "write chapter 1"}},
		{"complete trailing category", "mark the laundry task done",
			Complete{Item: "laundry"}},
		{"done with", "I'm done with my essay",
			Complete{Item: "essay"}},
		{"i finished", "I finished reading",
			Complete{Item: "reading"}},
		{"is done suffix", "the presentation is done",
			Complete{Item: "presentation"}},
		{"check off", "check off meditation habit",
			Complete{Item: "meditation"}},
		{"friend tasks", "tell me tasks of alice",
			FriendQuery{Friend: "alice", Tasks: true}},
		{"friend goals", "Show me the goals of my friend Bob?",
			FriendQuery{Friend: "bob", Goals: true}},
		{"friend both", "what are the tasks and goals of sam",
			FriendQuery{Friend: "sam", Tasks: true, Goals: true}},
		{"send message", "send good luck today to Sam",
			SendMessage{Friend: "sam", Body: "good luck today"}},
		{"remind", "remind my friend Alex to drink water",
			SendMessage{Friend: "alex", Body: "drink water", Reminder: true}},
		{"habit keyword", "add habit meditate",
			AddHabit{Name: "meditate", Frequency: "daily"}},
		{"habit of", "start a habit of journaling",
			AddHabit{Name: "journaling", Frequency: "daily"}},
		{"habit via to my habits", "add reading to my habits",
			AddHabit{Name: "reading", Frequency: "daily"}},
		{"habit weekly", "new habit long run weekly",
			AddHabit{Name: "long run", Frequency: "weekly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.input)
			if !ok {
				t.Fatalf("Classify(%q) matched nothing, want %#v", tt.input, tt.want)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestClassify_NoMatch(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"hey, how are you today?",
		"what should I focus on",
		"add",
		"add goal",
		"add subgoal",
		"mark",
		"send hello",
		"tell me about alice",
		"add habit",
		"i finished",
		"mark as done",
		"please mark as complete",
		"what message should I write to my boss",
		"message to my boss",
	} {
		if got, ok := Classify(input); ok {
			t.Errorf("Classify(%q) = %#v, want no match", input, got)
		}
	}
}

func TestClassify_SubgoalBeatsCompletion(t *testing.T) {
	inputs := []string{
		"add subgoal mark chapter as done to my novel goal",
		"add subgoal finish outline",
		"create subgoal review draft is done to novel",
	}
	for _, input := range inputs {
		got, ok := Classify(input)
		if !ok {
			t.Fatalf("Classify(%q) matched nothing", input)
		}
		if got.Kind() != KindAddSubgoal {
			t.Errorf("Classify(%q).Kind() = %v, want add_subgoal", input, got.Kind())
		}
	}
}

// A completion trigger inside a reminder body wins because completion
// comes first in the catalog.
func TestClassify_CompletionBeatsReminder(t *testing.T) {
	got, ok := Classify("remind bob to finish his essay")
	if !ok {
		t.Fatal("matched nothing")
	}
	if got.Kind() != KindComplete {
		t.Errorf("Kind() = %v, want complete", got.Kind())
	}
}

func TestClassify_GoalMentionBlocksTaskAnchor(t *testing.T) {
	got, ok := Classify("add review goal progress to my tasks")
	if ok && got.Kind() == KindAddTask {
		if at := got.(AddTask); at.Title == "review goal progress" {
			t.Errorf("anchored task extraction should not fire when a goal is mentioned: %#v", got)
		}
	}
}

func TestClassify_AnchorNeedsWordBoundary(t *testing.T) {
	got, ok := Classify("send the slides to listeners")
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Kind() != KindSendMessage {
		t.Errorf("Kind() = %v, want send_message", got.Kind())
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []string{
		"add buy groceries to my tasks",
		"mark write chapter 1 as done",
		"tell me tasks of alice",
		"hello there",
	}
	for _, input := range inputs {
		first, ok1 := Classify(input)
		for range 5 {
			again, ok2 := Classify(input)
			if ok1 != ok2 || !cmp.Equal(first, again) {
				t.Errorf("Classify(%q) not deterministic: %#v vs %#v", input, first, again)
			}
		}
	}
}

func TestClassifyWith_EmptyExtractionFallsThrough(t *testing.T) {
	rules := []Rule{
		{
			Name:    "always-empty",
			Trigger: func(string) bool { return true },
			Extract: func(string) (Intent, bool) { return nil, false },
		},
		{
			Name:    "fallback-task",
			Trigger: func(string) bool { return true },
			Extract: func(s string) (Intent, bool) { return AddTask{Title: s}, true },
		},
	}
	got, ok := ClassifyWith(rules, "  Water   the PLANTS ")
	if !ok {
		t.Fatal("second rule should match")
	}
	if diff := cmp.Diff(AddTask{Title: "water the plants"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestKindString(t *testing.T) {
	if got := KindAddSubgoal.String(); got != "add_subgoal" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(99).String(); got != "unknown" {
		t.Errorf("String() = %q", got)
	}
	for i, r := range Catalog() {
		if got := Kind(i + 1).String(); got != r.Name {
			t.Errorf("catalog[%d] name %q does not match kind %q", i, r.Name, got)
		}
	}
}
