package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
	"github.com/nova-labs/nova-core/internal/runtime"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// ingestLockTTL bounds how long one instance may hold a persona's ingest lock
const ingestLockTTL = 10 * time.Minute

// IngestionConfig holds dependencies for the ingestion service
type IngestionConfig struct {
	Pipeline    driven.PostProcessorPipeline
	VectorStore driven.VectorStore
	Services    *runtime.Services
	// Lock serialises re-ingestion of one persona across instances (optional)
	Lock      driven.DistributedLock
	BatchSize int
	Logger    *slog.Logger
}

// ingestionService chunks, embeds and stores persona documents
type ingestionService struct {
	pipeline    driven.PostProcessorPipeline
	vectorStore driven.VectorStore
	services    *runtime.Services
	lock        driven.DistributedLock
	batchSize   int
	logger      *slog.Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(cfg IngestionConfig) driving.IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbeddingBatch
	}
	return &ingestionService{
		pipeline:    cfg.Pipeline,
		vectorStore: cfg.VectorStore,
		services:    cfg.Services,
		lock:        cfg.Lock,
		batchSize:   batchSize,
		logger:      logger.With("service", "ingestion"),
	}
}

// Ingest replaces all vector rows of ownerID with rows built from text.
// Steps run strictly in order: chunk, embed, delete old rows, insert new rows.
// Embedding happens before the delete so a failed embed leaves the old rows.
// Between delete and insert, readers may see no rows for the owner.
func (s *ingestionService) Ingest(ctx context.Context, ownerID, text string) (*domain.IngestResult, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidInput
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil, fmt.Errorf("embedding service: %w", domain.ErrServiceUnavailable)
	}

	if s.lock != nil {
		lockName := "ingest:" + ownerID
		acquired, err := s.lock.Acquire(ctx, lockName, ingestLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !acquired {
			return nil, domain.ErrIngestionInProgress
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
				s.logger.Warn("failed to release ingest lock", "owner_id", ownerID, "error", err)
			}
		}()
	}

	start := time.Now()
	chunks := s.pipeline.Process(text)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := EmbedBatched(ctx, embedder, texts, s.batchSize)
	if err != nil {
		s.logger.Error("embedding failed", "owner_id", ownerID, "chunks", len(chunks), "error", err)
		return nil, err
	}

	if err := s.vectorStore.DeleteByOwner(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("clear vectors: %w", err)
	}

	if len(chunks) == 0 {
		return &domain.IngestResult{ModelID: ownerID}, nil
	}

	now := time.Now().UTC()
	rows := make([]*domain.EmbeddingRow, len(chunks))
	for i, c := range chunks {
		rows[i] = &domain.EmbeddingRow{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				domain.MetaChunkIndex: strconv.Itoa(c.Position),
				domain.MetaCreatedAt:  now.Format(time.RFC3339),
			},
			CreatedAt: now,
		}
	}

	if err := s.vectorStore.InsertRows(ctx, rows); err != nil {
		s.logger.Error("vector insert failed, persona has no retrievable context",
			"owner_id", ownerID, "rows", len(rows), "error", err)
		return nil, fmt.Errorf("insert vectors: %w", err)
	}

	s.logger.Info("ingestion completed",
		"owner_id", ownerID,
		"chunks", len(rows),
		"embedding_model", embedder.Model(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.IngestResult{ModelID: ownerID, ChunksStored: len(rows)}, nil
}
