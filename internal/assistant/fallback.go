package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nugget/accountable/internal/llm"
	"github.com/nugget/accountable/internal/store"
)

// DegradedReply is returned whenever the completion provider cannot
// produce an answer.
const DegradedReply = "I'm having trouble connecting right now, but I'm still here to support you!"

const (
	// contextItems caps how many tasks and goals are shown to the model.
	contextItems = 3
	// historyTurns is how many prior exchanges accompany the prompt.
	historyTurns = 2
)

// Fallback produces free-form replies for utterances no rule claimed.
type Fallback struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewFallback creates a Fallback. A nil completer yields DegradedReply
// for every request.
func NewFallback(c llm.Completer, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{llm: c, logger: logger}
}

// Context is what the fallback prompt is built from.
type Context struct {
	Tone      string
	Now       time.Time
	Pending   []store.Task
	Goals     []store.Goal
	History   []store.ChatTurn
	Utterance string
}

// Respond asks the provider for a reply. It never fails: provider errors
// and empty replies become DegradedReply.
func (f *Fallback) Respond(ctx context.Context, in Context) (string, bool) {
	if f.llm == nil {
		return DegradedReply, false
	}
	reply, err := f.llm.Complete(ctx, BuildMessages(in))
	if err != nil {
		f.logger.Warn("fallback completion failed", "error", err)
		return DegradedReply, false
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return DegradedReply, false
	}
	return reply, true
}

// BuildMessages assembles the transcript sent to the provider: one
// system message, the last few exchanges, then the current utterance.
func BuildMessages(in Context) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt(in)}}

	history := in.History
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	for _, t := range history {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.Utterance},
			llm.Message{Role: llm.RoleAssistant, Content: t.Reply},
		)
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: in.Utterance})
}

// SystemPrompt renders the persona, the clock, and the allow-list of
// records the model may mention.
func SystemPrompt(in Context) string {
	tone := in.Tone
	if tone == "" {
		tone = ToneBalanced
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a close friend and accountability partner. Your communication style should be %s. ", tone)
	b.WriteString(toneGuidance(tone))
	b.WriteString(" Always be personal, remember their goals, and act like you genuinely care about their progress.")
	b.WriteString(" Keep responses under 100 words.")
	fmt.Fprintf(&b, "\n\nCurrent date and time: %s", in.Now.Format("Monday, January 02, 2006 at 03:04 PM"))
	b.WriteString("\nYou can reference the current date/time when relevant.")
	b.WriteString("\n\nIMPORTANT: Only reference actual tasks and goals provided in the context." +
		" Never mention or assume tasks/goals that aren't explicitly listed." +
		" If no specific tasks/goals are provided, give general encouragement without making up specific items.")

	if data := userData(in.Pending, in.Goals); data != "" {
		b.WriteString("\n\nCurrent user data: ")
		b.WriteString(data)
		b.WriteString("\nOnly reference these actual items when discussing their tasks or goals.")
	} else {
		b.WriteString("\n\nThe user has no pending tasks or incomplete goals right now.")
	}
	return b.String()
}

func toneGuidance(tone string) string {
	switch tone {
	case ToneCasual:
		return "Use casual language, contractions, and be enthusiastic. Feel free to use expressions like 'awesome', 'cool', 'hey'."
	case ToneFormal:
		return "Be polite and professional but warm. Use complete sentences and respectful language."
	default:
		return "Be supportive and encouraging with a balanced tone."
	}
}

func userData(pending []store.Task, goals []store.Goal) string {
	var parts []string
	if len(pending) > 0 {
		titles := make([]string, 0, contextItems)
		for _, t := range pending[:min(len(pending), contextItems)] {
			titles = append(titles, t.Title)
		}
		parts = append(parts, fmt.Sprintf("User has %d pending tasks: %s", len(pending), strings.Join(titles, ", ")))
	}
	if len(goals) > 0 {
		titles := make([]string, 0, contextItems)
		for _, g := range goals[:min(len(goals), contextItems)] {
			titles = append(titles, g.Title)
		}
		parts = append(parts, fmt.Sprintf("User has %d incomplete goals: %s", len(goals), strings.Join(titles, ", ")))
	}
	return strings.Join(parts, " ")
}
