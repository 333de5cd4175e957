package driven

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// ModelStore handles persona persistence (PostgreSQL)
type ModelStore interface {
	// Save creates or updates a persona
	Save(ctx context.Context, model *domain.Model) error

	// Get retrieves a persona by ID
	Get(ctx context.Context, id string) (*domain.Model, error)

	// List retrieves all personas
	List(ctx context.Context) ([]*domain.Model, error)

	// Delete deletes a persona
	Delete(ctx context.Context, id string) error
}

// ModelDocumentStore handles persona document persistence (PostgreSQL)
type ModelDocumentStore interface {
	// SaveBatch saves documents in a transaction
	SaveBatch(ctx context.Context, docs []*domain.ModelDocument) error

	// ListByModel returns a persona's documents in upload order
	ListByModel(ctx context.Context, modelID string) ([]*domain.ModelDocument, error)

	// DeleteByModel deletes all documents of a persona
	DeleteByModel(ctx context.Context, modelID string) error
}
