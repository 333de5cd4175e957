package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driven/mocks"
)

// countingFactory builds mock chat providers and records the keys used
type countingFactory struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *countingFactory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return mocks.NewMockEmbeddingService(), nil
}

func (f *countingFactory) CreateChatProvider(settings *domain.LLMSettings) (driven.ChatProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, settings.APIKey)
	return mocks.NewMockChatProvider(mocks.Reply("ok")), nil
}

func TestClientCache_ReusesClientPerKey(t *testing.T) {
	factory := &countingFactory{}
	cache := NewClientCache(factory, domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "platform"})

	a1, err := cache.Get("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, _ := cache.Get("")
	b, _ := cache.Get("persona-key")

	if a1 != a2 {
		t.Error("expected the same client for the same key")
	}
	if a1 == b {
		t.Error("expected different clients for different keys")
	}
	if len(factory.keys) != 2 {
		t.Fatalf("expected 2 constructions, got %d", len(factory.keys))
	}
	if factory.keys[0] != "platform" || factory.keys[1] != "persona-key" {
		t.Errorf("unexpected keys used: %v", factory.keys)
	}
}

func TestClientCache_ConcurrentGet(t *testing.T) {
	factory := &countingFactory{}
	cache := NewClientCache(factory, domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "platform"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Get("shared")
		}()
	}
	wg.Wait()

	if len(factory.keys) != 1 {
		t.Errorf("expected 1 construction, got %d", len(factory.keys))
	}
}

func TestClientCache_Eviction(t *testing.T) {
	cache := NewClientCache(&countingFactory{}, domain.LLMSettings{Provider: domain.AIProviderOpenAI})
	cache.maxItems = 2

	_, _ = cache.Get("")
	_, _ = cache.Get("k1")
	_, _ = cache.Get("k2")

	if cache.Len() != 2 {
		t.Errorf("expected 2 cached clients, got %d", cache.Len())
	}
	if _, ok := cache.clients[""]; !ok {
		t.Error("platform client should survive eviction")
	}
}

func TestClientCache_FactoryError(t *testing.T) {
	factory := &countingFactory{err: errors.New("boom")}
	cache := NewClientCache(factory, domain.LLMSettings{})

	if _, err := cache.Get(""); err == nil {
		t.Error("expected factory error")
	}
	if cache.Len() != 0 {
		t.Error("failed construction must not be cached")
	}
}

func TestServices_ChatProviderWithoutCache(t *testing.T) {
	s := NewServices(nil)
	if _, err := s.ChatProvider(""); !errors.Is(err, ErrChatNotConfigured) {
		t.Errorf("expected ErrChatNotConfigured, got %v", err)
	}
}

type failingEmbedding struct {
	*mocks.MockEmbeddingService
	closed bool
}

func (f *failingEmbedding) HealthCheck(ctx context.Context) error { return errors.New("unreachable") }
func (f *failingEmbedding) Close() error                          { f.closed = true; return nil }

func TestServices_ValidateAndSetEmbedding(t *testing.T) {
	s := NewServices(nil)
	ctx := context.Background()

	bad := &failingEmbedding{MockEmbeddingService: mocks.NewMockEmbeddingService()}
	if err := s.ValidateAndSetEmbedding(ctx, bad); err == nil {
		t.Fatal("expected health check error")
	}
	if !bad.closed {
		t.Error("rejected service should be closed")
	}
	if s.EmbeddingService() != nil {
		t.Error("rejected service must not be set")
	}

	good := mocks.NewMockEmbeddingService()
	if err := s.ValidateAndSetEmbedding(ctx, good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EmbeddingService() == nil {
		t.Error("expected embedding service to be set")
	}
}
