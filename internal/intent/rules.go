package intent

import "strings"

var subgoalPhrases = []string{"add subgoal", "add sub goal", "create subgoal", "create sub goal"}

// Goal triggers double as removal phrases; longer phrases come first so
// a shorter one never leaves a fragment of a longer one behind.
var goalPhrases = []string{
	"to my monthly goals", "to my goals", "monthly goal",
	"add goal", "set goal", "new goal", "goal to", "my goal is",
}

var taskAnchors = []string{
	"to my tasks", "to my task list", "to the task list", "to tasks", "as a task",
	"on my todo", "on my to-do", "in my tasks", "to list",
	"to my today's task", "to today's task", "to my task", "to task",
}

var taskKeywords = []string{
	"add task", "create task", "new task", "add this task",
	"put this on my list", "add to list",
}

var taskVerbs = []string{
	"finish", "complete", "write", "read", "study", "call", "email", "buy",
	"get", "pick up", "drop off", "submit", "send", "review", "check",
	"update", "fix", "clean", "organize", "prepare", "schedule", "book",
	"pay", "visit", "meet", "attend", "practice", "exercise", "work on",
	"start", "begin", "learn", "research", "download", "install", "backup",
	"delete", "upload", "share", "post", "publish", "edit", "design",
	"create", "build", "make", "cook", "wash", "fold", "vacuum", "mop",
	"dust", "water", "feed", "walk",
}

// Completion outranks message sending, so "remind bob to finish his
// essay" is read as completing "his essay". Rule order decides it.
var completionPhrases = []string{
	"mark ", "complete ", "finish ", "done with ", "finished ", "completed ",
	"check off ", "cross off ", " as done", " as complete",
}

var completionSuffixes = []string{" is done", " is complete", " is finished", " finished", " completed"}

var habitTriggers = []string{
	"add habit", "new habit", "track habit", "start habit", "build habit",
	"habit of", "to my habits", "add playing", "add exercising", "add reading",
}

var habitPhrases = []string{
	"habit of", "to my habits", "add habit", "new habit", "track habit",
	"start habit", "build habit",
}

var categoryWords = []string{"task", "tasks", "habit", "habits", "goal", "goals", "subgoal", "subgoals"}

// Catalog returns the rules in priority order. Each call returns a
// fresh slice.
func Catalog() []Rule {
	return []Rule{
		{Name: "add_subgoal", Trigger: isSubgoalAdd, Extract: extractSubgoal},
		{Name: "add_goal", Trigger: isGoalAdd, Extract: extractGoal},
		{Name: "add_task", Trigger: isTaskAdd, Extract: extractTask},
		{Name: "complete", Trigger: isCompletion, Extract: extractCompletion},
		{Name: "friend_query", Trigger: isFriendQuery, Extract: extractFriendQuery},
		{Name: "send_message", Trigger: isMessage, Extract: extractMessage},
		{Name: "add_habit", Trigger: isHabitAdd, Extract: extractHabit},
	}
}

func isSubgoalAdd(s string) bool {
	return containsAny(s, subgoalPhrases...)
}

// extractSubgoal splits on the last " to " so the subgoal text itself
// may contain "to".
func extractSubgoal(s string) (Intent, bool) {
	var text string
	for _, p := range subgoalPhrases {
		if rest, ok := after(s, p); ok {
			text = rest
			break
		}
	}

	var ref string
	if i := strings.LastIndex(text, " to "); i >= 0 {
		ref = text[i+len(" to "):]
		text = text[:i]
	}
	text = clean(text)
	if text == "" {
		return nil, false
	}
	ref = stripLeading(stripTrailing(ref, "goal"), "my", "the")
	return AddSubgoal{Text: text, GoalRef: ref}, true
}

func isGoalAdd(s string) bool {
	return containsAny(s, goalPhrases...)
}

func extractGoal(s string) (Intent, bool) {
	title := removeAll(s, goalPhrases...)
	title = stripLeading(title, "add", "set", "create", "to", "a", "an", "my")
	if title == "" {
		return nil, false
	}
	return AddGoal{Title: title}, true
}

// Habit phrasing such as "add reading to my habits" would otherwise be
// taken by the add-verb strategy.
func isTaskAdd(s string) bool {
	if strings.Contains(s, "habit") {
		return false
	}
	for _, anchor := range taskAnchors {
		if indexPhrase(s, anchor) >= 0 {
			return true
		}
	}
	return containsAny(s, taskKeywords...) || strings.HasPrefix(s, "add ")
}

func extractTask(s string) (Intent, bool) {
	if title := anchoredTaskTitle(s); title != "" {
		return AddTask{Title: title}, true
	}
	for _, kw := range taskKeywords {
		if !strings.Contains(s, kw) {
			continue
		}
		if title := removeAll(s, kw); title != "" {
			return AddTask{Title: title}, true
		}
		break
	}
	if title := verbLedTaskTitle(s); title != "" {
		return AddTask{Title: title}, true
	}
	return nil, false
}

// anchoredTaskTitle handles "<title> to my tasks" phrasings. Any
// mention of a goal disables it.
func anchoredTaskTitle(s string) string {
	if strings.Contains(s, "goal") {
		return ""
	}
	for _, anchor := range taskAnchors {
		i := indexPhrase(s, anchor)
		if i < 0 {
			continue
		}
		head := clean(s[:i])
		for _, prefix := range []string{"add", "put", "create", "make", "set"} {
			if head == prefix {
				return ""
			}
			if rest, ok := strings.CutPrefix(head, prefix+" "); ok {
				head = rest
				break
			}
		}
		return clean(head)
	}
	return ""
}

// verbLedTaskTitle handles "add <verb> ..." and "add <verb>ing ...".
func verbLedTaskTitle(s string) string {
	rest, ok := strings.CutPrefix(s, "add ")
	if !ok {
		return ""
	}
	for _, verb := range taskVerbs {
		for _, form := range verbForms(verb) {
			if strings.HasPrefix(rest, form+" ") {
				return clean(rest)
			}
		}
	}
	return ""
}

// verbForms returns the bare verb and its plausible -ing spellings.
// Multi-word verbs inflect their first word.
func verbForms(verb string) []string {
	head, tail, _ := strings.Cut(verb, " ")
	if tail != "" {
		tail = " " + tail
	}
	forms := []string{verb, head + "ing" + tail}
	n := len(head)
	if n > 1 && head[n-1] == 'e' && head[n-2] != 'e' {
		forms = append(forms, head[:n-1]+"ing"+tail)
	}
	if n > 2 && !isVowel(head[n-1]) && isVowel(head[n-2]) && !isVowel(head[n-3]) &&
		!strings.ContainsRune("wxy", rune(head[n-1])) {
		forms = append(forms, head+head[n-1:]+"ing"+tail)
	}
	return forms
}

func isVowel(c byte) bool {
	return strings.IndexByte("aeiou", c) >= 0
}

func isCompletion(s string) bool {
	if containsAny(s, subgoalPhrases...) {
		return false
	}
	return containsAny(s, completionPhrases...) || containsAny(s, completionSuffixes...)
}

func extractCompletion(s string) (Intent, bool) {
	item := completionFragment(s)
	item = stripTrailing(item, categoryWords...)
	item = stripLeading(item, "my", "the")
	item = stripTrailing(item, categoryWords...)
	if item == "" {
		return nil, false
	}
	return Complete{Item: item}, true
}

// completionFragment pulls the raw item name out of the phrasings
// "mark X as done", "mark X done", "done with X", "I finished X", and
// "X is done".
func completionFragment(s string) string {
	for _, marker := range []string{" as done", " as complete"} {
		if head, ok := before(s, marker); ok {
			if rest, ok := after(head, "mark "); ok {
				head = rest
			} else if head == "mark" || strings.HasSuffix(head, " mark") {
				// "mark as done" names no item.
				return ""
			}
			return clean(head)
		}
	}

	for _, prefix := range []string{"mark ", "complete ", "finish ", "check off ", "cross off "} {
		rest, ok := after(s, prefix)
		if !ok {
			continue
		}
		for _, end := range []string{" done", " complete", " finished", " task", " habit", " goal"} {
			if head, ok := before(rest, end); ok {
				rest = head
				break
			}
		}
		if item := clean(rest); item != "" {
			return item
		}
		break
	}

	for _, prefix := range []string{"done with ", "finished with ", "i have finished ", "i have completed ", "i finished ", "i completed ", "completed ", "finished "} {
		if rest, ok := after(s, prefix); ok {
			if item := clean(rest); item != "" {
				return item
			}
		}
	}

	for _, suffix := range []string{" is done", " is complete", " is finished", " finished", " completed"} {
		if head, ok := before(s, suffix); ok {
			return stripLeading(head, "i have", "i")
		}
	}
	return ""
}

func isFriendQuery(s string) bool {
	return containsAny(s, "tell me", "show me", "what are") &&
		containsAny(s, "tasks", "goals") &&
		strings.Contains(s, " of ")
}

func extractFriendQuery(s string) (Intent, bool) {
	var name string
	for _, sep := range []string{"tasks of ", "goals of ", " of "} {
		if rest, ok := after(s, sep); ok {
			name = rest
			break
		}
	}
	name = stripLeading(name, "my friend", "friend", "my")
	if name == "" {
		return nil, false
	}
	return FriendQuery{
		Friend: name,
		Tasks:  strings.Contains(s, "task"),
		Goals:  strings.Contains(s, "goal"),
	}, true
}

func isMessage(s string) bool {
	return containsAny(s, "send", "message", "remind") && strings.Contains(s, " to ")
}

// extractMessage handles "send X to Y" and "remind Y to X". When both
// verbs appear the send form wins; with neither, the utterance is left
// for later rules.
func extractMessage(s string) (Intent, bool) {
	head, tail, _ := strings.Cut(s, " to ")
	friendName := func(v string) string {
		return stripLeading(v, "my friend", "friend")
	}

	if strings.Contains(s, "send") {
		body := stripLeading(head, "please", "send", "message", "a message", "the message")
		friend := friendName(tail)
		if body == "" || friend == "" {
			return nil, false
		}
		return SendMessage{Friend: friend, Body: body}, true
	}

	if !strings.Contains(s, "remind") {
		return nil, false
	}
	friend := ""
	if rest, ok := after(head, "remind "); ok {
		friend = friendName(rest)
	}
	body := clean(tail)
	if friend == "" || body == "" {
		return nil, false
	}
	return SendMessage{Friend: friend, Body: body, Reminder: true}, true
}

func isHabitAdd(s string) bool {
	return containsAny(s, habitTriggers...)
}

func extractHabit(s string) (Intent, bool) {
	name := removeAll(s, habitPhrases...)
	name = stripLeading(name, "add", "track", "start", "build", "new", "a", "my", "the")

	freq := "daily"
	for _, w := range []string{"every week", "weekly"} {
		if rest, ok := strings.CutSuffix(name, " "+w); ok {
			name, freq = clean(rest), "weekly"
			break
		}
	}
	name = stripTrailing(name, "every day", "daily")
	if name == "" {
		return nil, false
	}
	return AddHabit{Name: name, Frequency: freq}, true
}
