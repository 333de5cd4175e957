package driven

import (
	"github.com/nova-labs/nova-core/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateChatProvider creates a chat provider from settings
	// Returns nil, nil if settings are not configured
	CreateChatProvider(settings *domain.LLMSettings) (ChatProvider, error)
}
