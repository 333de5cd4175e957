package services

import (
	"context"
	"log/slog"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// Ensure conversationService implements ConversationService
var _ driving.ConversationService = (*conversationService)(nil)

// Conversation listing limits
const (
	DefaultConversationPageSize = 20
	MaxConversationPageSize     = 100
)

// conversationService reads and deletes a user's conversations
type conversationService struct {
	store  driven.ConversationStore
	logger *slog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(store driven.ConversationStore, logger *slog.Logger) driving.ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &conversationService{store: store, logger: logger.With("service", "conversation")}
}

// List returns the user's conversations, most recent first
func (s *conversationService) List(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
	if limit <= 0 {
		limit = DefaultConversationPageSize
	}
	if limit > MaxConversationPageSize {
		limit = MaxConversationPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}

// Messages returns a conversation's messages in order
func (s *conversationService) Messages(ctx context.Context, userID, conversationID string) ([]*domain.StoredMessage, error) {
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

// Delete removes a conversation owned by the user
func (s *conversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, conversationID); err != nil {
		return err
	}
	s.logger.Info("conversation deleted", "conversation_id", conversationID, "user_id", userID)
	return nil
}

// owned hides other users' conversations behind ErrNotFound
func (s *conversationService) owned(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	conv, err := s.store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}
