package store

import (
	"context"
	"fmt"
)

// sessionTitleLimit bounds the listing title derived from a session's
// first utterance.
const sessionTitleLimit = 50

// AppendTurn records one utterance and its reply in a session.
func (s *Store) AppendTurn(ctx context.Context, userID, sessionID, utterance, reply string) (*ChatTurn, error) {
	created := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (user_id, session_id, utterance, reply, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, sessionID, utterance, reply, created)
	if err != nil {
		return nil, fmt.Errorf("insert chat turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("chat turn id: %w", err)
	}
	return &ChatTurn{
		ID:        id,
		UserID:    userID,
		SessionID: sessionID,
		Utterance: utterance,
		Reply:     reply,
		CreatedAt: parseTime(created),
	}, nil
}

// RecentTurns returns the user's last n turns across all sessions in
// chronological order.
func (s *Store) RecentTurns(ctx context.Context, userID string, n int) ([]ChatTurn, error) {
	turns, err := s.queryTurns(ctx, `
		SELECT id, user_id, session_id, utterance, reply, created_at
		FROM chat_turns WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// SessionTurns returns every turn of one session in chronological order.
func (s *Store) SessionTurns(ctx context.Context, userID, sessionID string) ([]ChatTurn, error) {
	return s.queryTurns(ctx, `
		SELECT id, user_id, session_id, utterance, reply, created_at
		FROM chat_turns WHERE user_id = ? AND session_id = ?
		ORDER BY created_at, id`,
		userID, sessionID)
}

// ListSessions summarizes the user's sessions, most recently started
// first. A session's title is its first utterance, truncated.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.session_id, t.utterance, t.created_at, agg.turns
		FROM chat_turns t
		JOIN (
			SELECT session_id, MIN(id) AS first_id, COUNT(*) AS turns
			FROM chat_turns WHERE user_id = ?
			GROUP BY session_id
		) agg ON agg.first_id = t.id
		ORDER BY t.created_at DESC, t.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		var first, created string
		if err := rows.Scan(&ss.ID, &first, &created, &ss.Turns); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ss.Title = SessionTitle(first)
		ss.CreatedAt = parseTime(created)
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

// DeleteSession removes every turn of a session.
func (s *Store) DeleteSession(ctx context.Context, userID, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_turns WHERE user_id = ? AND session_id = ?`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return requireRow(res, "session "+sessionID)
}

// SessionTitle derives a listing title from a session's first utterance.
func SessionTitle(first string) string {
	r := []rune(first)
	if len(r) <= sessionTitleLimit {
		return first
	}
	return string(r[:sessionTitleLimit]) + "..."
}

func (s *Store) queryTurns(ctx context.Context, query string, args ...any) ([]ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var created string
		if err := rows.Scan(&t.ID, &t.UserID, &t.SessionID, &t.Utterance, &t.Reply, &created); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		t.CreatedAt = parseTime(created)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
