package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// Ensure modelService implements ModelService
var _ driving.ModelService = (*modelService)(nil)

// documentSeparator joins a persona's documents into one ingestion text
const documentSeparator = "\n\n"

// ModelServiceConfig holds dependencies for the model service
type ModelServiceConfig struct {
	ModelStore    driven.ModelStore
	DocumentStore driven.ModelDocumentStore
	VectorStore   driven.VectorStore
	Normalisers   driven.NormaliserRegistry
	Ingestion     driving.IngestionService
	Logger        *slog.Logger
}

// modelService manages personas and keeps their vectors in step with their documents
type modelService struct {
	models      driven.ModelStore
	documents   driven.ModelDocumentStore
	vectors     driven.VectorStore
	normalisers driven.NormaliserRegistry
	ingestion   driving.IngestionService
	logger      *slog.Logger
}

// NewModelService creates a new ModelService
func NewModelService(deps ModelServiceConfig) driving.ModelService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &modelService{
		models:      deps.ModelStore,
		documents:   deps.DocumentStore,
		vectors:     deps.VectorStore,
		normalisers: deps.Normalisers,
		ingestion:   deps.Ingestion,
		logger:      logger.With("service", "model"),
	}
}

// Create stores a persona and ingests its documents.
// Uploads are validated before anything is written.
func (s *modelService) Create(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	model := &domain.Model{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Config:      req.Config,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	model.Config.APIKey = strings.TrimSpace(req.APIKey)

	docs, err := s.normaliseUploads(model.ID, req.Documents, now)
	if err != nil {
		return nil, err
	}

	if err := s.models.Save(ctx, model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	result := &driving.ModelResult{Model: model}
	if len(docs) == 0 {
		return result, nil
	}

	if err := s.documents.SaveBatch(ctx, docs); err != nil {
		return nil, fmt.Errorf("save documents: %w", err)
	}

	result.Ingest = s.ingest(ctx, model.ID, docs)
	return result, nil
}

// Get retrieves a persona with its document records and stored chunk count
func (s *modelService) Get(ctx context.Context, id string) (*domain.ModelWithDocuments, error) {
	model, err := s.models.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.ListByModel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []*domain.ModelDocument{}
	}

	chunks, err := s.vectors.CountByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}

	return &domain.ModelWithDocuments{Model: model, Documents: docs, ChunksStored: chunks}, nil
}

// List retrieves all personas
func (s *modelService) List(ctx context.Context) ([]*domain.Model, error) {
	return s.models.List(ctx)
}

// Update changes a persona. A non-nil Documents slice replaces every
// document; an empty one clears documents and vectors.
func (s *modelService) Update(ctx context.Context, id string, req driving.UpdateModelRequest) (*driving.ModelResult, error) {
	model, err := s.models.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
		}
		model.Name = name
	}
	if req.Description != nil {
		model.Description = *req.Description
	}
	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			return nil, err
		}
		apiKey := model.Config.APIKey
		model.Config = *req.Config
		model.Config.APIKey = apiKey
	}
	if req.APIKey != nil {
		model.Config.APIKey = strings.TrimSpace(*req.APIKey)
	}

	now := time.Now()
	var docs []*domain.ModelDocument
	if req.Documents != nil {
		docs, err = s.normaliseUploads(model.ID, req.Documents, now)
		if err != nil {
			return nil, err
		}
	}

	model.UpdatedAt = now
	if err := s.models.Save(ctx, model); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	result := &driving.ModelResult{Model: model}
	if req.Documents == nil {
		return result, nil
	}

	if err := s.documents.DeleteByModel(ctx, model.ID); err != nil {
		return nil, fmt.Errorf("clear documents: %w", err)
	}
	if len(docs) > 0 {
		if err := s.documents.SaveBatch(ctx, docs); err != nil {
			return nil, fmt.Errorf("save documents: %w", err)
		}
	}

	result.Ingest = s.ingest(ctx, model.ID, docs)
	return result, nil
}

// Delete removes vectors, documents and the persona, in that order
func (s *modelService) Delete(ctx context.Context, id string) error {
	if _, err := s.models.Get(ctx, id); err != nil {
		return err
	}

	if err := s.vectors.DeleteByOwner(ctx, id); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.documents.DeleteByModel(ctx, id); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := s.models.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("model deleted", "model_id", id)
	return nil
}

func (s *modelService) normaliseUploads(modelID string, uploads []driving.DocumentUpload, now time.Time) ([]*domain.ModelDocument, error) {
	docs := make([]*domain.ModelDocument, 0, len(uploads))
	for _, u := range uploads {
		text, err := s.normalisers.NormaliseUpload(u.Content, u.MimeType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, u.Name)
		}
		docs = append(docs, &domain.ModelDocument{
			ID:        uuid.NewString(),
			ModelID:   modelID,
			Name:      u.Name,
			MimeType:  u.MimeType,
			Text:      text,
			Size:      len(u.Content),
			CreatedAt: now,
		})
	}
	return docs, nil
}

// ingest never fails the request: the persona stays saved and the
// error is reported to the caller.
func (s *modelService) ingest(ctx context.Context, modelID string, docs []*domain.ModelDocument) *domain.IngestResult {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			texts = append(texts, d.Text)
		}
	}

	result, err := s.ingestion.Ingest(ctx, modelID, strings.Join(texts, documentSeparator))
	if err != nil {
		s.logger.Error("ingestion failed", "model_id", modelID, "documents", len(docs), "error", err)
		return &domain.IngestResult{ModelID: modelID, Error: err.Error()}
	}
	return result
}
