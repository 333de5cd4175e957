package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

var _ driven.ConversationStore = (*MockConversationStore)(nil)

// MockConversationStore is an in-memory ConversationStore for testing
type MockConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	messages      map[string][]*domain.StoredMessage

	// AppendErr is returned by AppendMessages when set
	AppendErr error
}

// NewMockConversationStore creates a new MockConversationStore
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]*domain.StoredMessage),
	}
}

func (m *MockConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conversations[conv.ID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *conv
	m.conversations[conv.ID] = &cp
	return nil
}

func (m *MockConversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (m *MockConversationStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockConversationStore) AppendMessages(ctx context.Context, conversationID string, msgs []domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	conv, ok := m.conversations[conversationID]
	if !ok {
		return domain.ErrNotFound
	}
	existing := m.messages[conversationID]
	for _, msg := range msgs {
		existing = append(existing, &domain.StoredMessage{
			ID:             fmt.Sprintf("%s-%d", conversationID, len(existing)),
			ConversationID: conversationID,
			Seq:            len(existing),
			ChatMessage:    msg,
		})
	}
	m.messages[conversationID] = existing
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MockConversationStore) ListMessages(ctx context.Context, conversationID string) ([]*domain.StoredMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.StoredMessage(nil), m.messages[conversationID]...), nil
}

func (m *MockConversationStore) RecentMessages(ctx context.Context, conversationID string, n int) ([]*domain.StoredMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[conversationID]
	if n >= 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]*domain.StoredMessage(nil), msgs...), nil
}

func (m *MockConversationStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

// ConversationCount returns the number of stored conversations
func (m *MockConversationStore) ConversationCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}
