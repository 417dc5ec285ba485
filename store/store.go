package store

import (
	"context"

	"chatwire/models"
)

// MessageStore is the durable record of every message. Messages are immutable
// once created; there is no update or delete.
type MessageStore interface {
	// CreateMessage assigns the message ID and creation timestamp and
	// persists the record. Returns apperr.ValidationError when the message
	// carries neither content nor attachment.
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)

	// ListConversation returns every message exchanged between a and b,
	// ordered by creation time ascending. The result is a finite snapshot.
	ListConversation(ctx context.Context, a, b string) ([]models.Message, error)
}

// UserStore reads user summaries maintained by the auth/profile system.
type UserStore interface {
	// GetUser returns apperr.NotFoundError for an unknown ID.
	GetUser(ctx context.Context, id string) (models.User, error)

	// ListUsersExcept returns every known user except the given one,
	// supporting the contact list.
	ListUsersExcept(ctx context.Context, id string) ([]models.User, error)
}
