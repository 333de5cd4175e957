package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// ErrChatNotConfigured is returned when no chat provider can be built
var ErrChatNotConfigured = errors.New("chat provider not configured")

// Services holds the platform AI services.
// The embedding service is shared; chat providers are built per API key.
// Thread-safe for concurrent access.
type Services struct {
	mu               sync.RWMutex
	embeddingService driven.EmbeddingService
	chatClients      *ClientCache
}

// NewServices creates a new Services registry
func NewServices(chatClients *ClientCache) *Services {
	return &Services{chatClients: chatClients}
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}
	s.embeddingService = svc
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ChatProvider returns the chat provider for a persona's API key override.
// An empty key selects the platform key.
func (s *Services) ChatProvider(apiKey string) (driven.ChatProvider, error) {
	if s.chatClients == nil {
		return nil, ErrChatNotConfigured
	}
	return s.chatClients.Get(apiKey)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.chatClients != nil {
		return s.chatClients.Close()
	}
	return nil
}

// ClientCache lazily builds chat providers and reuses them per API key.
type ClientCache struct {
	mu       sync.Mutex
	factory  driven.AIServiceFactory
	base     domain.LLMSettings
	clients  map[string]driven.ChatProvider
	maxItems int
}

// DefaultMaxCachedClients bounds the number of distinct API keys kept.
const DefaultMaxCachedClients = 64

// NewClientCache creates a cache building providers from base settings
func NewClientCache(factory driven.AIServiceFactory, base domain.LLMSettings) *ClientCache {
	return &ClientCache{
		factory:  factory,
		base:     base,
		clients:  make(map[string]driven.ChatProvider),
		maxItems: DefaultMaxCachedClients,
	}
}

// Get returns the provider for apiKey, building it on first use.
func (c *ClientCache) Get(apiKey string) (driven.ChatProvider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}

	settings := c.base.WithAPIKey(apiKey)
	client, err := c.factory.CreateChatProvider(&settings)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrChatNotConfigured
	}

	if len(c.clients) >= c.maxItems {
		c.evictOneLocked()
	}
	c.clients[apiKey] = client
	return client, nil
}

// Len returns the number of cached providers
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// evictOneLocked drops an arbitrary persona client, keeping the platform one.
func (c *ClientCache) evictOneLocked() {
	for key, client := range c.clients {
		if key == "" {
			continue
		}
		_ = client.Close()
		delete(c.clients, key)
		return
	}
}

// Close closes every cached provider
func (c *ClientCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, client := range c.clients {
		_ = client.Close()
		delete(c.clients, key)
	}
	return nil
}
