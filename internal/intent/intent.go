// Package intent classifies chat utterances into domain commands.
//
// Classification is a pure function of the utterance text: an ordered
// [Catalog] of rules is evaluated against the lower-cased input and the
// first rule that both triggers and extracts usable content wins. Rules
// never consult stored data; resolving the extracted fragments against a
// user's goals, tasks, habits, and friends is the caller's job.
//
// Earlier rules pre-empt later ones on overlapping phrasings. In
// particular a subgoal-creation phrase always beats a completion
// phrase, and task creation never fires when the utterance mentions a
// goal.
package intent

// Kind identifies an intent variant.
type Kind int

// Intent kinds in catalog order.
const (
	KindNone Kind = iota
	KindAddSubgoal
	KindAddGoal
	KindAddTask
	KindComplete
	KindFriendQuery
	KindSendMessage
	KindAddHabit
)

var kindNames = [...]string{
	KindNone:        "none",
	KindAddSubgoal:  "add_subgoal",
	KindAddGoal:     "add_goal",
	KindAddTask:     "add_task",
	KindComplete:    "complete",
	KindFriendQuery: "friend_query",
	KindSendMessage: "send_message",
	KindAddHabit:    "add_habit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Intent is a classified command. The concrete types below are the
// only implementations.
type Intent interface {
	Kind() Kind
}

// AddSubgoal creates Text under the goal matching GoalRef, or under the
// most recent goal when GoalRef is empty or matches nothing.
type AddSubgoal struct {
	Text    string
	GoalRef string
}

// AddGoal creates a goal.
type AddGoal struct {
	Title string
}

// AddTask creates a pending task.
type AddTask struct {
	Title string
}

// Complete marks the first item matching Item as done.
type Complete struct {
	Item string
}

// FriendQuery summarizes a friend's pending tasks and/or active goals.
type FriendQuery struct {
	Friend string
	Tasks  bool
	Goals  bool
}

// SendMessage sends Body to the friend matching Friend. Reminder
// messages are stored with a "Reminder: " prefix.
type SendMessage struct {
	Friend   string
	Body     string
	Reminder bool
}

// AddHabit creates a habit.
type AddHabit struct {
	Name      string
	Frequency string
}

func (AddSubgoal) Kind() Kind  { return KindAddSubgoal }
func (AddGoal) Kind() Kind     { return KindAddGoal }
func (AddTask) Kind() Kind     { return KindAddTask }
func (Complete) Kind() Kind    { return KindComplete }
func (FriendQuery) Kind() Kind { return KindFriendQuery }
func (SendMessage) Kind() Kind { return KindSendMessage }
func (AddHabit) Kind() Kind    { return KindAddHabit }

// Rule is one entry of the catalog. Trigger decides whether the rule
// applies; Extract parses its parameters and reports false when nothing
// usable was found, in which case evaluation continues with the next
// rule. Both receive the normalized (lower-cased, single-spaced)
// utterance.
type Rule struct {
	Name    string
	Trigger func(s string) bool
	Extract func(s string) (Intent, bool)
}

// Classify runs the default catalog. It returns false when no rule
// matched and the utterance should go to the fallback responder.
func Classify(utterance string) (Intent, bool) {
	return ClassifyWith(Catalog(), utterance)
}

// ClassifyWith evaluates rules in order against utterance.
func ClassifyWith(rules []Rule, utterance string) (Intent, bool) {
	s := normalize(utterance)
	if s == "" {
		return nil, false
	}
	for _, r := range rules {
		if !r.Trigger(s) {
			continue
		}
		if in, ok := r.Extract(s); ok {
			return in, true
		}
	}
	return nil, false
}
