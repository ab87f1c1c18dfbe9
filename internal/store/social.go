package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// UpsertUser creates the user or refreshes its email, name, and picture.
func (s *Store) UpsertUser(ctx context.Context, u User) (*User, error) {
	if u.ID == "" || u.Email == "" {
		return nil, errors.New("user id and email are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, picture, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name, picture = excluded.picture`,
		u.ID, u.Email, u.Name, u.Picture, s.stamp())
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return s.GetUser(ctx, u.ID)
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, COALESCE(picture, ''), created_at FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

// SearchUsers returns up to 20 users whose email contains query,
// excluding excludeID.
func (s *Store) SearchUsers(ctx context.Context, query, excludeID string) ([]User, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryUsers(ctx, `
		SELECT id, email, name, COALESCE(picture, ''), created_at
		FROM users WHERE LOWER(email) LIKE ? ESCAPE '\' AND id != ?
		ORDER BY email LIMIT 20`,
		pattern, excludeID)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanUser(sc scanner) (*User, error) {
	var u User
	var created string
	if err := sc.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SendFriendRequest records a pending request from one user to another.
func (s *Store) SendFriendRequest(ctx context.Context, fromID, toID string) (int64, error) {
	if fromID == toID {
		return 0, errors.New("cannot send a friend request to yourself")
	}
	if _, err := s.GetUser(ctx, toID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at) VALUES (?, ?, ?, ?)`,
		fromID, toID, string(RequestPending), s.stamp())
	if err != nil {
		return 0, fmt.Errorf("insert friend request: %w", err)
	}
	return res.LastInsertId()
}

// PendingFriendRequests returns requests awaiting userID's answer,
// newest first, joined with the sender's profile.
func (s *Store) PendingFriendRequests(ctx context.Context, userID string) ([]IncomingRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fr.id, fr.created_at, u.id, u.email, u.name, COALESCE(u.picture, ''), u.created_at
		FROM friend_requests fr JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = ? AND fr.status = ?
		ORDER BY fr.created_at DESC, fr.id DESC`,
		userID, string(RequestPending))
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer rows.Close()

	var reqs []IncomingRequest
	for rows.Next() {
		var r IncomingRequest
		var created, userCreated string
		if err := rows.Scan(&r.RequestID, &created,
			&r.From.ID, &r.From.Email, &r.From.Name, &r.From.Picture, &userCreated); err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		r.CreatedAt = parseTime(created)
		r.From.CreatedAt = parseTime(userCreated)
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// RespondFriendRequest accepts or rejects a pending request. Accepting
// creates the friendship; the pair is stored once regardless of which
// side sent the request.
func (s *Store) RespondFriendRequest(ctx context.Context, requestID int64, status RequestStatus) error {
	if status != RequestAccepted && status != RequestRejected {
		return fmt.Errorf("invalid response %q", status)
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var from, to string
		err := tx.QueryRowContext(ctx,
			`SELECT from_user_id, to_user_id FROM friend_requests WHERE id = ? AND status = ?`,
			requestID, string(RequestPending)).Scan(&from, &to)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("friend request %d: %w", requestID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load friend request %d: %w", requestID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE friend_requests SET status = ? WHERE id = ?`, string(status), requestID); err != nil {
			return fmt.Errorf("update friend request %d: %w", requestID, err)
		}
		if status != RequestAccepted {
			return nil
		}

		low, high := from, to
		if high < low {
			low, high = high, low
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO friendships (user_low, user_high, created_at) VALUES (?, ?, ?)`,
			low, high, s.stamp()); err != nil {
			return fmt.Errorf("insert friendship: %w", err)
		}
		return nil
	})
}

// ListFriends returns the users befriended by userID, most recent
// friendship first.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]User, error) {
	return s.queryUsers(ctx, `
		SELECT u.id, u.email, u.name, COALESCE(u.picture, ''), u.created_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_low = ? THEN f.user_high ELSE f.user_low END
		WHERE f.user_low = ? OR f.user_high = ?
		ORDER BY f.created_at DESC, u.id`,
		userID, userID, userID)
}

// AreFriends reports whether a and b share a friendship.
func (s *Store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if b < a {
		a, b = b, a
	}
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM friendships WHERE user_low = ? AND user_high = ?`, a, b).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return true, nil
}

// SendMessage stores a direct message.
func (s *Store) SendMessage(ctx context.Context, fromID, toID, body string) (*Message, error) {
	created := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (from_user_id, to_user_id, body, read, created_at) VALUES (?, ?, ?, 0, ?)`,
		fromID, toID, body, created)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	return &Message{
		ID:         id,
		FromUserID: fromID,
		ToUserID:   toID,
		Body:       body,
		CreatedAt:  parseTime(created),
	}, nil
}

// ListMessages returns messages sent or received by userID, newest
// first, labeled with the other participant's name.
func (s *Store) ListMessages(ctx context.Context, userID string) ([]MessageView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.from_user_id, m.body, m.read, m.created_at,
		       COALESCE(u.name, CASE WHEN m.from_user_id = ? THEN m.to_user_id ELSE m.from_user_id END)
		FROM messages m
		LEFT JOIN users u ON u.id = CASE WHEN m.from_user_id = ? THEN m.to_user_id ELSE m.from_user_id END
		WHERE m.from_user_id = ? OR m.to_user_id = ?
		ORDER BY m.created_at DESC, m.id DESC`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []MessageView
	for rows.Next() {
		var m MessageView
		var from, created string
		if err := rows.Scan(&m.ID, &from, &m.Body, &m.Read, &created, &m.ContactName); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTime(created)
		m.Direction = DirectionReceived
		if from == userID {
			m.Direction = DirectionSent
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
