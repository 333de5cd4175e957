package services

import (
	"context"
	"fmt"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// EmbedBatched embeds texts in batches of batchSize, one provider call per
// batch. The result has one vector per text, in input order. A provider
// error or a batch whose vector count differs from its input count aborts
// the remaining batches. Callers filter out blank texts beforehand.
func EmbedBatched(ctx context.Context, embedder driven.EmbeddingService, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbeddingBatch
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		embeddings, err := embedder.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("batch %d-%d: got %d vectors for %d inputs: %w",
				start, end, len(embeddings), len(batch), domain.ErrEmbeddingSizeMismatch)
		}
		vectors = append(vectors, embeddings...)
	}

	return vectors, nil
}
