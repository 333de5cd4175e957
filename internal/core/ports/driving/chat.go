package driving

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// StreamSink receives a streaming reply as server-sent events.
// Open is called once before the first event, with the conversation ID
// the turn will be recorded under.
type StreamSink interface {
	Open(conversationID string) error
	WriteEvent(data []byte) error
	Close() error
}

// ChatService runs chat turns against a persona
type ChatService interface {
	// Chat runs a synchronous turn and records it
	Chat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error)

	// StreamChat relays the reply to sink as it is generated.
	// Only a cleanly completed reply is recorded.
	StreamChat(ctx context.Context, userID string, req domain.ChatRequest, sink StreamSink) error
}

// ConversationService reads a user's chat history
type ConversationService interface {
	// List returns the user's conversations, most recent first
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error)

	// Messages returns a conversation's messages in order
	Messages(ctx context.Context, userID, conversationID string) ([]*domain.StoredMessage, error)

	// Delete removes a conversation owned by the user
	Delete(ctx context.Context, userID, conversationID string) error
}
