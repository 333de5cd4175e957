package driven

import (
	"context"
)

// EmbeddingService turns text into vectors.
// Every persona shares one embedding model so query and document vectors
// stay comparable.
type EmbeddingService interface {
	// Embed returns one vector per input text, in input order.
	// Implementations send all texts in a single provider request;
	// batching is the caller's concern.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single chat prompt for similarity search
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
