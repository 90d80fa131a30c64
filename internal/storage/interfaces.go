package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ragagent/ragagent/pkg/models"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// MessageStore is the Conversation Store: an append-only log of messages
// keyed by conversation id. Messages are never mutated or deleted
// individually; only whole conversations are removed.
type MessageStore interface {
	// Append writes one message row.
	Append(ctx context.Context, msg *models.Message) error

	// AppendTurn writes the user message and the assistant message produced
	// in reply to it within a single transaction. If assistant is nil, only
	// user is written. The two rows either both become visible or neither
	// does: a failure rolls back the whole turn, never leaving an orphaned
	// user-only row from a failed turn.
	AppendTurn(ctx context.Context, user *models.Message, assistant *models.Message) error

	// Tail returns the last n messages for the conversation, newest-first.
	Tail(ctx context.Context, conversationID string, n int) ([]models.Message, error)

	// History returns every message for the conversation, oldest-first.
	History(ctx context.Context, conversationID string) ([]models.Message, error)

	// ConversationsFor returns the distinct conversation ids with at least
	// one message belonging to userID whose id starts with prefix, ordered
	// by most recent activity descending.
	ConversationsFor(ctx context.Context, userID, prefix string) ([]string, error)

	// Delete removes every row for conversationID.
	Delete(ctx context.Context, conversationID string) error

	// DeleteOlderThan removes every conversation whose most recent message
	// predates cutoff, returning the number of rows removed. Used by the
	// periodic retention sweep.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the store.
	Close() error
}
