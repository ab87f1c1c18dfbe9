// Package notify pushes user-facing events (direct messages, friend
// reminders) to an MQTT broker so companion devices can surface them.
// Delivery is best-effort: the record in the store is authoritative.
package notify

import (
	"context"
	"errors"
	"time"
)

// Event types.
const (
	EventMessage  = "message"
	EventReminder = "reminder"
)

// ErrNotConnected is returned by Publisher.Notify before Start has
// established a broker connection.
var ErrNotConnected = errors.New("mqtt publisher not started")

// Event is a notification addressed to one user.
type Event struct {
	Type       string    `json:"type"`
	MessageID  int64     `json:"message_id,omitempty"`
	FromUserID string    `json:"from_user_id"`
	FromName   string    `json:"from_name,omitempty"`
	ToUserID   string    `json:"to_user_id"`
	Body       string    `json:"body"`
	At         time.Time `json:"at"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }
