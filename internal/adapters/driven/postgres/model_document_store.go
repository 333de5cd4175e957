package postgres

import (
	"context"
	"database/sql"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ModelDocumentStore = (*ModelDocumentStore)(nil)

// ModelDocumentStore implements driven.ModelDocumentStore using PostgreSQL
type ModelDocumentStore struct {
	db *DB
}

// NewModelDocumentStore creates a new ModelDocumentStore
func NewModelDocumentStore(db *DB) *ModelDocumentStore {
	return &ModelDocumentStore{db: db}
}

// SaveBatch saves documents in a transaction, recording their order
func (s *ModelDocumentStore) SaveBatch(ctx context.Context, docs []*domain.ModelDocument) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO model_documents (id, model_id, name, mime_type, content, size, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				mime_type = EXCLUDED.mime_type,
				content = EXCLUDED.content,
				size = EXCLUDED.size,
				position = EXCLUDED.position
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, d := range docs {
			if _, err := stmt.ExecContext(ctx, d.ID, d.ModelID, d.Name, d.MimeType, d.Text, d.Size, i, d.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByModel returns a persona's documents in upload order
func (s *ModelDocumentStore) ListByModel(ctx context.Context, modelID string) ([]*domain.ModelDocument, error) {
	query := `
		SELECT id, model_id, name, mime_type, content, size, created_at
		FROM model_documents
		WHERE model_id = $1
		ORDER BY created_at ASC, position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.ModelDocument
	for rows.Next() {
		var d domain.ModelDocument
		if err := rows.Scan(&d.ID, &d.ModelID, &d.Name, &d.MimeType, &d.Text, &d.Size, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// DeleteByModel deletes all documents of a persona
func (s *ModelDocumentStore) DeleteByModel(ctx context.Context, modelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM model_documents WHERE model_id = $1`, modelID)
	return err
}
