package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore implements driven.ConversationStore using PostgreSQL.
// Messages are ordered by a per-conversation sequence number.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create stores a new conversation
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, model_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query, conv.ID, conv.UserID, conv.ModelID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Get retrieves a conversation by ID
func (s *ConversationStore) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, model_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	var c domain.Conversation
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID, &c.ModelID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns a user's conversations, most recently updated first
func (s *ConversationStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
	query := `
		SELECT id, user_id, model_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.ModelID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, &c)
	}
	return convs, rows.Err()
}

// AppendMessages appends messages after the current last one and bumps
// the conversation's updated_at, all in one transaction.
func (s *ConversationStore) AppendMessages(ctx context.Context, conversationID string, msgs []domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		now := time.Now()

		// Locking the conversation row serialises concurrent appends
		result, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, now, conversationID)
		if err != nil {
			return err
		}
		if err := rowsAffectedOrNotFound(result); err != nil {
			return err
		}

		var next int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE conversation_id = $1`,
			conversationID,
		).Scan(&next)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO messages (id, conversation_id, seq, role, content, attachments, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, m := range msgs {
			attachments, err := marshalAttachments(m.Attachments)
			if err != nil {
				return err
			}
			createdAt := m.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			if _, err := stmt.ExecContext(ctx,
				uuid.NewString(), conversationID, next+i, string(m.Role), m.Content, attachments, createdAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListMessages returns messages in insertion order
func (s *ConversationStore) ListMessages(ctx context.Context, conversationID string) ([]*domain.StoredMessage, error) {
	query := `
		SELECT id, conversation_id, seq, role, content, attachments, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`
	return s.queryMessages(ctx, query, conversationID)
}

// RecentMessages returns the last n messages in insertion order
func (s *ConversationStore) RecentMessages(ctx context.Context, conversationID string, n int) ([]*domain.StoredMessage, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `
		SELECT id, conversation_id, seq, role, content, attachments, created_at
		FROM (
			SELECT id, conversation_id, seq, role, content, attachments, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`
	return s.queryMessages(ctx, query, conversationID, n)
}

// Delete deletes a conversation. Messages cascade.
func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}

func (s *ConversationStore) queryMessages(ctx context.Context, query string, args ...any) ([]*domain.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.StoredMessage
	for rows.Next() {
		var m domain.StoredMessage
		var attachments []byte
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Seq, &m.Role, &m.Content, &attachments, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshal attachments: %w", err)
		}
		if len(m.Attachments) == 0 {
			m.Attachments = nil
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func marshalAttachments(attachments []domain.Attachment) ([]byte, error) {
	if len(attachments) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return data, nil
}
