package driven

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// ConversationStore handles conversations and their messages (PostgreSQL)
type ConversationStore interface {
	// Create stores a new conversation
	Create(ctx context.Context, conv *domain.Conversation) error

	// Get retrieves a conversation by ID
	Get(ctx context.Context, id string) (*domain.Conversation, error)

	// ListByUser returns a user's conversations, most recently updated first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error)

	// AppendMessages appends messages in order and bumps UpdatedAt
	AppendMessages(ctx context.Context, conversationID string, msgs []domain.ChatMessage) error

	// ListMessages returns messages in insertion order
	ListMessages(ctx context.Context, conversationID string) ([]*domain.StoredMessage, error)

	// RecentMessages returns the last n messages in insertion order
	RecentMessages(ctx context.Context, conversationID string, n int) ([]*domain.StoredMessage, error)

	// Delete deletes a conversation and its messages
	Delete(ctx context.Context, id string) error
}
