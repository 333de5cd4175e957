package driven

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// VectorStore persists embedding rows and runs similarity search (pgvector)
type VectorStore interface {
	// InsertRows bulk-inserts rows. No dedup: callers clear an owner's
	// rows first when replacing them.
	InsertRows(ctx context.Context, rows []*domain.EmbeddingRow) error

	// DeleteByOwner removes all rows of an owner. Idempotent.
	DeleteByOwner(ctx context.Context, ownerID string) error

	// Search returns up to matchCount rows nearest to embedding, best first.
	// An empty ownerID searches across all owners.
	Search(ctx context.Context, embedding []float32, ownerID string, matchCount int) ([]*domain.RetrievedChunk, error)

	// CountByOwner returns the number of rows stored for an owner
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
