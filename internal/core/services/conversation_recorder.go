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
)

// Title generation limits
const (
	titleMaxTokens = 20
	titleMaxWords  = 6
	titlePrompt    = "Summarise the user's first message as a conversation title of at most six words. " +
		"Reply with the title only, without quotes or punctuation at the end."
)

// TurnInput is one completed chat turn to persist
type TurnInput struct {
	// ConversationID is the thread to append to. When empty, or when
	// IsNew is set, a conversation is created with this ID (or a new one).
	ConversationID string
	IsNew          bool
	UserID         string
	ModelID        string
	UserText       string
	AssistantText  string
	Attachments    []domain.Attachment
	// Introduction marks a persona self-introduction; no user turn is stored
	Introduction bool
	// TitleProvider and TitleModel generate the title of a new conversation
	TitleProvider driven.ChatProvider
	TitleModel    string
}

// ConversationRecorder appends chat turns to the conversation store
type ConversationRecorder struct {
	store  driven.ConversationStore
	logger *slog.Logger
}

// NewConversationRecorder creates a new ConversationRecorder
func NewConversationRecorder(store driven.ConversationStore, logger *slog.Logger) *ConversationRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationRecorder{store: store, logger: logger.With("component", "conversation_recorder")}
}

// NewConversationID returns a fresh conversation ID.
// Streaming callers need the ID before the reply exists.
func NewConversationID() string {
	return uuid.NewString()
}

// RecordTurn stores the user turn then the assistant turn and returns the
// conversation ID. A failed title completion falls back to a default title.
func (r *ConversationRecorder) RecordTurn(ctx context.Context, in TurnInput) (string, error) {
	conversationID := in.ConversationID

	if conversationID == "" || in.IsNew {
		if conversationID == "" {
			conversationID = NewConversationID()
		}
		now := time.Now()
		conv := &domain.Conversation{
			ID:        conversationID,
			UserID:    in.UserID,
			ModelID:   in.ModelID,
			Title:     r.generateTitle(ctx, in),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.store.Create(ctx, conv); err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
	}

	now := time.Now()
	msgs := make([]domain.ChatMessage, 0, 2)
	if !in.Introduction {
		msgs = append(msgs, domain.ChatMessage{
			Role:        domain.RoleUser,
			Content:     in.UserText,
			Attachments: in.Attachments,
			CreatedAt:   now,
		})
	}
	msgs = append(msgs, domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   in.AssistantText,
		CreatedAt: now,
	})

	if err := r.store.AppendMessages(ctx, conversationID, msgs); err != nil {
		return "", fmt.Errorf("append messages: %w", err)
	}
	return conversationID, nil
}

func (r *ConversationRecorder) generateTitle(ctx context.Context, in TurnInput) string {
	seed := in.UserText
	if in.Introduction || strings.TrimSpace(seed) == "" {
		seed = in.AssistantText
	}
	if in.TitleProvider == nil || strings.TrimSpace(seed) == "" {
		return domain.DefaultConversationTitle
	}

	completion, err := in.TitleProvider.Complete(ctx, driven.ChatRequest{
		Model: in.TitleModel,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: titlePrompt},
			{Role: domain.RoleUser, Content: truncateChars(seed, 1000)},
		},
		MaxTokens:   titleMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		r.logger.Warn("title generation failed", "error", err)
		return domain.DefaultConversationTitle
	}

	title := cleanTitle(completion.Content)
	if title == "" {
		return domain.DefaultConversationTitle
	}
	return title
}

// cleanTitle strips quotes and trailing punctuation and keeps at most six words
func cleanTitle(raw string) string {
	words := strings.Fields(strings.Trim(strings.TrimSpace(raw), `"'`))
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	return strings.TrimRight(strings.Join(words, " "), ".!?:;,")
}
