package driving

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// DocumentUpload is an uploaded persona document
type DocumentUpload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

// CreateModelRequest creates a persona, optionally with documents
type CreateModelRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Config      domain.ModelConfig `json:"config"`
	APIKey      string             `json:"api_key,omitempty"`
	Documents   []DocumentUpload   `json:"documents,omitempty"`
}

// UpdateModelRequest updates a persona. Nil fields are left unchanged.
// A non-nil Documents replaces every document and re-ingests.
type UpdateModelRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Config      *domain.ModelConfig `json:"config,omitempty"`
	APIKey      *string             `json:"api_key,omitempty"`
	Documents   []DocumentUpload    `json:"documents,omitempty"`
}

// ModelResult is returned by create and update.
// Ingestion failures leave the persona saved and are reported in Ingest.Error.
type ModelResult struct {
	Model  *domain.Model        `json:"model"`
	Ingest *domain.IngestResult `json:"ingest,omitempty"`
}

// ModelService manages AI personas and their retrieval documents
type ModelService interface {
	// Create stores a persona and ingests its documents
	Create(ctx context.Context, creatorID string, req CreateModelRequest) (*ModelResult, error)

	// Get retrieves a persona with its document records
	Get(ctx context.Context, id string) (*domain.ModelWithDocuments, error)

	// List retrieves all personas
	List(ctx context.Context) ([]*domain.Model, error)

	// Update changes a persona; new documents replace the old ones
	Update(ctx context.Context, id string, req UpdateModelRequest) (*ModelResult, error)

	// Delete removes vectors, documents and the persona
	Delete(ctx context.Context, id string) error
}

// IngestionService turns persona document text into stored vectors
type IngestionService interface {
	// Ingest replaces every vector row of ownerID with rows built from text
	Ingest(ctx context.Context, ownerID, text string) (*domain.IngestResult, error)
}
