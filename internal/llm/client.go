// Package llm talks to the conversational completion provider.
package llm

import (
	"context"
	"errors"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyReply is returned when the provider answers without content.
var ErrEmptyReply = errors.New("provider returned an empty reply")

// Message is one entry of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a reply for a transcript. Implementations must
// honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
