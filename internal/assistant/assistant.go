// Package assistant turns a user utterance into a reply. Utterances the
// rule catalog recognizes are dispatched as commands against the
// user's records; everything else goes to the conversational fallback,
// primed with the user's tone and a short allow-list of real records.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/nugget/accountable/internal/intent"
	"github.com/nugget/accountable/internal/llm"
	"github.com/nugget/accountable/internal/notify"
)

// ErrorReply is returned when a recognized command fails internally.
const ErrorReply = "Sorry, something went wrong while handling that. Please try again."

// proactiveChance is the probability that ProactiveCheck nudges a user
// who has pending tasks.
const proactiveChance = 0.3

var proactivePrompts = []string{
	"How are your tasks going today?",
	"Need any help with your to-do list?",
	"How's your productivity today?",
}

// Assistant is the classify-and-respond engine.
type Assistant struct {
	logger     *slog.Logger
	store      Store
	sessions   SessionStore
	rules      []intent.Rule
	dispatcher *Dispatcher
	fallback   *Fallback

	now    func() time.Time
	chance func() float64
	pick   func(n int) int
}

// New creates an Assistant. completer and notifier may be nil.
func New(logger *slog.Logger, st Store, sessions SessionStore, completer llm.Completer, notifier notify.Notifier) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		logger:     logger,
		store:      st,
		sessions:   sessions,
		rules:      intent.Catalog(),
		dispatcher: NewDispatcher(st, notifier, logger),
		fallback:   NewFallback(completer, logger),
		now:        time.Now,
		chance:     rand.Float64,
		pick:       rand.IntN,
	}
}

// setClock pins the time used for habit dates and the fallback prompt.
func (a *Assistant) setClock(now func() time.Time) {
	a.now = now
	a.dispatcher.now = now
}

// ClassifyAndRespond handles one utterance for userID and records the
// exchange in the user's current chat session. Command failures and
// provider faults are folded into the reply; the returned error only
// reports a failure to persist the exchange.
func (a *Assistant) ClassifyAndRespond(ctx context.Context, userID, utterance string) (string, error) {
	var reply string
	if in, ok := intent.ClassifyWith(a.rules, utterance); ok {
		reply = a.dispatch(ctx, userID, in)
	} else {
		reply = a.converse(ctx, userID, utterance)
	}

	if err := a.record(ctx, userID, utterance, reply); err != nil {
		return reply, err
	}
	return reply, nil
}

// dispatch runs a classified intent, converting errors and panics into
// ErrorReply.
func (a *Assistant) dispatch(ctx context.Context, userID string, in intent.Intent) (reply string) {
	kind := in.Kind().String()
	UtterancesTotal.WithLabelValues(kind).Inc()

	defer func() {
		if r := recover(); r != nil {
			DispatchErrorsTotal.WithLabelValues(kind).Inc()
			a.logger.Error("intent handler panicked", "intent", kind, "user", userID, "panic", r)
			reply = ErrorReply
		}
	}()

	reply, err := a.dispatcher.Dispatch(ctx, userID, in)
	if err != nil {
		DispatchErrorsTotal.WithLabelValues(kind).Inc()
		a.logger.Error("intent dispatch failed", "intent", kind, "user", userID, "error", err)
		return ErrorReply
	}
	a.logger.Debug("intent dispatched", "intent", kind, "user", userID)
	return reply
}

// converse builds the fallback context from the user's history and
// records. Store failures shrink the context rather than abort.
func (a *Assistant) converse(ctx context.Context, userID, utterance string) string {
	UtterancesTotal.WithLabelValues("fallback").Inc()

	fc := Context{Now: a.now(), Utterance: utterance}

	history, err := a.store.RecentTurns(ctx, userID, personalityWindow)
	if err != nil {
		a.logger.Warn("load chat history failed", "user", userID, "error", err)
	}
	fc.Tone = EstimateTone(history)
	fc.History = history

	if fc.Pending, err = a.store.PendingTasks(ctx, userID); err != nil {
		a.logger.Warn("load pending tasks failed", "user", userID, "error", err)
	}
	if fc.Goals, err = a.store.IncompleteGoals(ctx, userID); err != nil {
		a.logger.Warn("load incomplete goals failed", "user", userID, "error", err)
	}

	reply, ok := a.fallback.Respond(ctx, fc)
	if ok {
		FallbackTotal.WithLabelValues("success").Inc()
	} else {
		FallbackTotal.WithLabelValues("degraded").Inc()
	}
	a.logger.Debug("fallback reply", "user", userID, "tone", fc.Tone, "degraded", !ok)
	return reply
}

// record appends the exchange to the current session, starting one if
// the user has none.
func (a *Assistant) record(ctx context.Context, userID, utterance, reply string) error {
	sessionID, err := a.CurrentSession(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := a.store.AppendTurn(ctx, userID, sessionID, utterance, reply); err != nil {
		return fmt.Errorf("record chat turn: %w", err)
	}
	return nil
}

// CurrentSession returns the user's active session id, creating one if
// needed.
func (a *Assistant) CurrentSession(ctx context.Context, userID string) (string, error) {
	id, err := a.sessions.CurrentSession(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load current session: %w", err)
	}
	if id != "" {
		return id, nil
	}
	return a.NewSession(ctx, userID)
}

// NewSession starts a fresh chat session for userID and returns its id.
func (a *Assistant) NewSession(ctx context.Context, userID string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	if err := a.sessions.SetCurrentSession(ctx, userID, id.String()); err != nil {
		return "", fmt.Errorf("store current session: %w", err)
	}
	return id.String(), nil
}

// ForgetSession drops sessionID as the user's active session, if it is
// one. Called after the session's turns are deleted so the next turn
// starts a fresh session instead of reviving the deleted id.
func (a *Assistant) ForgetSession(ctx context.Context, userID, sessionID string) error {
	current, err := a.sessions.CurrentSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("load current session: %w", err)
	}
	if current != sessionID {
		return nil
	}
	if err := a.sessions.ClearCurrentSession(ctx, userID); err != nil {
		return fmt.Errorf("clear current session: %w", err)
	}
	return nil
}

// ProactiveCheck occasionally returns a check-in prompt for users with
// pending tasks. An empty string means stay quiet.
func (a *Assistant) ProactiveCheck(ctx context.Context, userID string) (string, error) {
	pending, err := a.store.PendingTasks(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(pending) == 0 || a.chance() >= proactiveChance {
		return "", nil
	}
	return proactivePrompts[a.pick(len(proactivePrompts))], nil
}
