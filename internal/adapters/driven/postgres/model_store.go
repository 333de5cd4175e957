package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ModelStore = (*ModelStore)(nil)

// ErrNoEncryptor is returned when a persona carries an API key but the
// store was built without an encryptor.
var ErrNoEncryptor = fmt.Errorf("%w: persona API keys require SECRET_KEY", domain.ErrInvalidInput)

const modelColumns = `id, name, description, config, api_key_encrypted, created_by, created_at, updated_at`

// ModelStore implements driven.ModelStore using PostgreSQL.
// Config is stored as JSONB; the API key override is sealed separately.
type ModelStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewModelStore creates a new ModelStore. encryptor may be nil, in which
// case personas cannot carry their own API key.
func NewModelStore(db *DB, encryptor *SecretEncryptor) *ModelStore {
	return &ModelStore{db: db, encryptor: encryptor}
}

// Save creates or updates a persona
func (s *ModelStore) Save(ctx context.Context, model *domain.Model) error {
	configJSON, err := json.Marshal(model.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	sealedKey, err := s.sealKey(model)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO models (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			config = EXCLUDED.config,
			api_key_encrypted = EXCLUDED.api_key_encrypted,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		model.ID,
		model.Name,
		model.Description,
		configJSON,
		sealedKey,
		model.CreatedBy,
		model.CreatedAt,
		model.UpdatedAt,
	)
	return err
}

// Get retrieves a persona by ID with its API key decrypted
func (s *ModelStore) Get(ctx context.Context, id string) (*domain.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`
	return s.scanModel(s.db.QueryRowContext(ctx, query, id))
}

// List retrieves all personas, oldest first
func (s *ModelStore) List(ctx context.Context) ([]*domain.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*domain.Model
	for rows.Next() {
		model, err := s.scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// Delete deletes a persona. Its documents cascade.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}

func (s *ModelStore) sealKey(model *domain.Model) ([]byte, error) {
	if !model.Config.HasAPIKeyOverride() {
		return nil, nil
	}
	if s.encryptor == nil {
		return nil, ErrNoEncryptor
	}
	sealed, err := s.encryptor.EncryptString(model.ID, model.Config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt api key: %w", err)
	}
	return sealed, nil
}

func (s *ModelStore) scanModel(row rowScanner) (*domain.Model, error) {
	var model domain.Model
	var configJSON, sealedKey []byte

	err := row.Scan(
		&model.ID,
		&model.Name,
		&model.Description,
		&configJSON,
		&sealedKey,
		&model.CreatedBy,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &model.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(sealedKey) > 0 {
		if s.encryptor == nil {
			return nil, ErrNoEncryptor
		}
		key, err := s.encryptor.DecryptString(model.ID, sealedKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt api key for model %s: %w", model.ID, err)
		}
		model.Config.APIKey = key
	}

	return &model, nil
}
