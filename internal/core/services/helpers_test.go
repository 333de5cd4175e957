package services

import (
	"context"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driven/mocks"
	"github.com/nova-labs/nova-core/internal/runtime"
)

// staticFactory hands out a fixed chat provider and records requested keys
type staticFactory struct {
	mu       sync.Mutex
	provider driven.ChatProvider
	keys     []string
}

func (f *staticFactory) CreateEmbeddingService(*domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return nil, nil
}

func (f *staticFactory) CreateChatProvider(settings *domain.LLMSettings) (driven.ChatProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, settings.APIKey)
	return f.provider, nil
}

func (f *staticFactory) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func newTestRuntime(embedder driven.EmbeddingService, provider driven.ChatProvider) (*runtime.Services, *staticFactory) {
	factory := &staticFactory{provider: provider}
	base := domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "platform-key"}
	svc := runtime.NewServices(runtime.NewClientCache(factory, base))
	if embedder != nil {
		svc.SetEmbeddingService(embedder)
	}
	return svc, factory
}

// recordingSink collects streamed events in memory
type recordingSink struct {
	mu             sync.Mutex
	conversationID string
	opened         bool
	closed         bool
	events         []string
	failAfter      int
	writeErr       error
}

func (s *recordingSink) Open(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = true
	s.conversationID = conversationID
	return nil
}

func (s *recordingSink) WriteEvent(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil && len(s.events) >= s.failAfter {
		return s.writeErr
	}
	s.events = append(s.events, string(data))
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func seedModel(store *mocks.MockModelStore, cfg domain.ModelConfig) *domain.Model {
	model := &domain.Model{ID: "model-1", Name: "Support Bot", Config: cfg}
	_ = store.Save(context.Background(), model)
	return model
}
