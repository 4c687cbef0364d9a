// Package memory holds per-conversation history. Each chat keeps a
// bounded sliding window of messages, created lazily on first use.
package memory

import (
	"context"

	"github.com/sweetpotato0/transagent/message"
)

// DefaultWindow is the number of messages kept per chat when a store is
// created without an explicit window.
const DefaultWindow = 20

// Store persists conversation history per chat ID. Implementations must
// support concurrent access across chat IDs and serialize writes within
// one chat. AppendExchange is atomic: the question and the answer are
// recorded together or not at all.
type Store interface {
	// History returns the recorded messages for a chat, oldest first.
	// An unknown chat ID yields an empty history, not an error.
	History(ctx context.Context, chatID string) ([]*message.Message, error)

	// AppendExchange records one question/answer turn and trims the
	// history to the store's window.
	AppendExchange(ctx context.Context, chatID string, question, answer *message.Message) error

	// Clear removes a chat's history.
	Clear(ctx context.Context, chatID string) error
}

// NewExchange builds the message pair for one completed turn
func NewExchange(question, answer string) (*message.Message, *message.Message) {
	return message.NewMessage(message.RoleUser, question),
		message.NewMessage(message.RoleAssistant, answer)
}
