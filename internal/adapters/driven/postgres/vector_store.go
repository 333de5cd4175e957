package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore on the pgvector extension.
// Similarity is cosine: score = 1 - cosine distance.
type VectorStore struct {
	db *DB
}

// NewVectorStore creates a new VectorStore
func NewVectorStore(db *DB) *VectorStore {
	return &VectorStore{db: db}
}

// InsertRows bulk-loads rows with COPY inside one transaction, so a
// failed batch leaves nothing behind.
func (s *VectorStore) InsertRows(ctx context.Context, rows []*domain.EmbeddingRow) error {
	if len(rows) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("embeddings",
			"id", "owner_id", "content", "embedding", "metadata", "created_at"))
		if err != nil {
			return fmt.Errorf("prepare copy: %w", err)
		}

		for _, r := range rows {
			metadata, err := metadataJSON(r.Metadata)
			if err != nil {
				stmt.Close()
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				r.ID, r.OwnerID, r.Content, pgvector.NewVector(r.Embedding), metadata, r.CreatedAt,
			); err != nil {
				stmt.Close()
				return fmt.Errorf("copy row %s: %w", r.ID, err)
			}
		}

		// An empty Exec flushes the COPY buffer
		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flush copy: %w", err)
		}
		return stmt.Close()
	})
}

// DeleteByOwner removes all rows of an owner. Idempotent.
func (s *VectorStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM embeddings WHERE owner_id = $1`, ownerID)
	return err
}

// Search returns up to matchCount rows nearest to embedding, best first.
// Rows whose dimension differs from the query are skipped rather than
// failing the whole search.
func (s *VectorStore) Search(ctx context.Context, embedding []float32, ownerID string, matchCount int) ([]*domain.RetrievedChunk, error) {
	if matchCount <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT content, 1 - (embedding <=> $1::vector) AS score
		FROM embeddings
		WHERE ($2::text = '' OR owner_id = $2)
		  AND vector_dims(embedding) = $3
		ORDER BY embedding <=> $1::vector
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), ownerID, len(embedding), matchCount)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var chunks []*domain.RetrievedChunk
	for rows.Next() {
		var c domain.RetrievedChunk
		if err := rows.Scan(&c.Content, &c.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// CountByOwner returns the number of rows stored for an owner
func (s *VectorStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

// metadataJSON renders metadata as text; COPY would encode []byte as bytea.
func metadataJSON(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}
