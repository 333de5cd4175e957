package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
	"github.com/nova-labs/nova-core/internal/runtime"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// introductionPrompt is sent when a persona greets the user unprompted
const introductionPrompt = "Introduce yourself to the user in two or three sentences."

// ChatConfig holds dependencies for the chat service
type ChatConfig struct {
	ModelStore        driven.ModelStore
	ConversationStore driven.ConversationStore
	VectorStore       driven.VectorStore
	Services          *runtime.Services
	WebSearcher       driven.WebSearcher
	// ChatModel is the platform chat model, used for conversation titles
	// and for personas that do not name their own
	ChatModel string
	Logger    *slog.Logger
}

// chatService runs retrieval, assembly, generation and persistence per turn
type chatService struct {
	models        driven.ModelStore
	conversations driven.ConversationStore
	vectors       driven.VectorStore
	services      *runtime.Services
	toolLoop      *ToolLoop
	relay         *StreamRelay
	recorder      *ConversationRecorder
	webSearch     bool
	chatModel     string
	logger        *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = domain.DefaultChatModel
	}
	return &chatService{
		models:        cfg.ModelStore,
		conversations: cfg.ConversationStore,
		vectors:       cfg.VectorStore,
		services:      cfg.Services,
		toolLoop:      NewToolLoop(cfg.WebSearcher, logger),
		relay:         NewStreamRelay(logger),
		recorder:      NewConversationRecorder(cfg.ConversationStore, logger),
		webSearch:     cfg.WebSearcher != nil,
		chatModel:     chatModel,
		logger:        logger.With("service", "chat"),
	}
}

// turn is a validated chat request with everything needed to call the model
type turn struct {
	model          *domain.Model
	provider       driven.ChatProvider
	prompt         string
	history        []domain.ChatMessage
	conversationID string
	isNew          bool
}

// Chat runs a synchronous turn
func (s *chatService) Chat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error) {
	t, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	chunks := s.retrieve(ctx, t, domain.SyncMatchCount)
	messages := AssembleContext(ContextInput{
		SystemPrompt: t.model.Config.EffectiveSystemPrompt(),
		Chunks:       chunks,
		FileText:     req.FileText,
		History:      t.history,
		UserPrompt:   t.prompt,
	}, SyncAssembleOptions())

	reply, err := s.toolLoop.Complete(ctx, t.provider, s.chatRequest(t.model, messages))
	if err != nil {
		s.logger.Error("chat completion failed", "model_id", t.model.ID, "error", err)
		return nil, fmt.Errorf("chat completion: %w: %w", domain.ErrServiceUnavailable, err)
	}

	conversationID, err := s.record(ctx, userID, req, t, reply)
	if err != nil {
		// The user already has the answer; a failed write only loses history
		s.logger.Error("failed to record turn", "model_id", t.model.ID, "error", err)
	}

	return &domain.ChatReply{Reply: reply, ConversationID: conversationID}, nil
}

// StreamChat relays the reply to sink and records it only on clean completion
func (s *chatService) StreamChat(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error {
	t, err := s.prepare(ctx, userID, req)
	if err != nil {
		return err
	}

	chunks := s.retrieve(ctx, t, domain.StreamMatchCount)
	messages := AssembleContext(ContextInput{
		SystemPrompt: t.model.Config.EffectiveSystemPrompt(),
		Chunks:       chunks,
		FileText:     req.FileText,
		History:      t.history,
		UserPrompt:   t.prompt,
	}, StreamAssembleOptions(t.model.Config.EffectiveMaxTokens()))

	if t.conversationID == "" {
		t.conversationID = NewConversationID()
		t.isNew = true
	}
	if err := sink.Open(t.conversationID); err != nil {
		return err
	}
	defer sink.Close()

	// The relay forwards text only, so no tools are offered when streaming
	streamReq := s.chatRequest(t.model, messages)
	streamReq.Tools = nil

	reply, err := s.relay.Relay(ctx, t.provider, streamReq, sink)
	if err != nil {
		return err
	}

	if _, err := s.record(context.WithoutCancel(ctx), userID, req, t, reply); err != nil {
		s.logger.Error("failed to record streamed turn", "model_id", t.model.ID, "error", err)
	}
	return nil
}

// prepare validates the request and loads the persona, provider and history.
// No external calls are made for invalid requests.
func (s *chatService) prepare(ctx context.Context, userID string, req domain.ChatRequest) (*turn, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if req.Introduction && prompt == "" {
		prompt = introductionPrompt
	}
	if req.ModelID == "" || prompt == "" {
		return nil, domain.ErrInvalidInput
	}

	model, err := s.models.Get(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}

	provider, err := s.services.ChatProvider(model.Config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("chat provider: %w: %v", domain.ErrServiceUnavailable, err)
	}

	t := &turn{model: model, provider: provider, prompt: prompt, history: req.History}

	if req.ConversationID != "" {
		t.conversationID = req.ConversationID
		t.isNew = req.NewConversation
		if !req.NewConversation {
			history, err := s.loadHistory(ctx, userID, model.ID, req.ConversationID)
			if err != nil {
				return nil, err
			}
			t.history = history
		}
	}

	return t, nil
}

// loadHistory returns recent turns of a conversation owned by userID.
// A conversation cannot be continued with a different persona.
func (s *chatService) loadHistory(ctx context.Context, userID, modelID, conversationID string) ([]domain.ChatMessage, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if conv.ModelID != modelID {
		return nil, fmt.Errorf("%w: conversation belongs to another model", domain.ErrInvalidInput)
	}

	stored, err := s.conversations.RecentMessages(ctx, conversationID, SyncHistoryTurns*2)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return domain.ToChatMessages(stored), nil
}

// retrieve returns the persona's nearest chunks. Any failure means no context.
func (s *chatService) retrieve(ctx context.Context, t *turn, matchCount int) []*domain.RetrievedChunk {
	if !t.model.Config.UseRetrieval || s.vectors == nil {
		return nil
	}

	embedder := s.services.EmbeddingService()
	if embedder == nil {
		return nil
	}

	embedding, err := embedder.EmbedQuery(ctx, t.prompt)
	if err != nil {
		s.logger.Warn("query embedding failed, continuing without context", "model_id", t.model.ID, "error", err)
		return nil
	}

	chunks, err := s.vectors.Search(ctx, embedding, t.model.ID, matchCount)
	if err != nil {
		s.logger.Warn("vector search failed, continuing without context", "model_id", t.model.ID, "error", err)
		return nil
	}
	return chunks
}

func (s *chatService) chatRequest(model *domain.Model, messages []domain.ChatMessage) driven.ChatRequest {
	req := driven.ChatRequest{
		Model:       model.Config.EffectiveChatModel(s.chatModel),
		Messages:    messages,
		MaxTokens:   model.Config.EffectiveMaxTokens(),
		Temperature: model.Config.EffectiveTemperature(),
	}
	if model.Config.WebSearch && s.webSearch {
		req.Tools = []domain.ToolDefinition{domain.WebSearchTool()}
	}
	return req
}

func (s *chatService) record(ctx context.Context, userID string, req domain.ChatRequest, t *turn, reply string) (string, error) {
	return s.recorder.RecordTurn(ctx, TurnInput{
		ConversationID: t.conversationID,
		IsNew:          t.isNew,
		UserID:         userID,
		ModelID:        t.model.ID,
		UserText:       t.prompt,
		AssistantText:  reply,
		Attachments:    req.Attachments,
		Introduction:   req.Introduction,
		TitleProvider:  t.provider,
		TitleModel:     s.chatModel,
	})
}
