package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driven/mocks"
)

type chatFixture struct {
	models        *mocks.MockModelStore
	conversations *mocks.MockConversationStore
	vectors       *mocks.MockVectorStore
	embedder      *mocks.MockEmbeddingService
	provider      *mocks.MockChatProvider
	searcher      *mocks.MockWebSearcher
	factory       *staticFactory
	svc           *chatService
}

func newChatFixture(responses ...*driven.ChatCompletion) *chatFixture {
	f := &chatFixture{
		models:        mocks.NewMockModelStore(),
		conversations: mocks.NewMockConversationStore(),
		vectors:       mocks.NewMockVectorStore(),
		embedder:      mocks.NewMockEmbeddingService(),
		provider:      mocks.NewMockChatProvider(responses...),
		searcher:      mocks.NewMockWebSearcher("search results"),
	}
	rt, factory := newTestRuntime(f.embedder, f.provider)
	f.factory = factory
	f.svc = NewChatService(ChatConfig{
		ModelStore:        f.models,
		ConversationStore: f.conversations,
		VectorStore:       f.vectors,
		Services:          rt,
		WebSearcher:       f.searcher,
	}).(*chatService)
	return f
}

func (f *chatFixture) ingest(t *testing.T, ownerID string, chunks ...string) {
	t.Helper()
	rows := make([]*domain.EmbeddingRow, len(chunks))
	for i, c := range chunks {
		vec, _ := f.embedder.EmbedQuery(context.Background(), c)
		rows[i] = &domain.EmbeddingRow{ID: c, OwnerID: ownerID, Content: c, Embedding: vec}
	}
	require.NoError(t, f.vectors.InsertRows(context.Background(), rows))
}

func TestChat_NoDocuments(t *testing.T) {
	f := newChatFixture(mocks.Reply("4"), mocks.Reply("Simple Arithmetic"))
	seedModel(f.models, domain.DefaultModelConfig())

	reply, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "What is 2+2?"})
	require.NoError(t, err)
	assert.Equal(t, "4", reply.Reply)
	assert.NotEmpty(t, reply.ConversationID)

	first := f.provider.Requests()[0]
	require.Len(t, first.Messages, 2, "system and user only")
	assert.Equal(t, domain.RoleSystem, first.Messages[0].Role)
	assert.Equal(t, "What is 2+2?", first.Messages[1].Content)
}

func TestChat_IncludesRetrievedContext(t *testing.T) {
	f := newChatFixture(mocks.Reply("Thirty days."))
	seedModel(f.models, domain.DefaultModelConfig())
	f.ingest(t, "model-1", "c1", "c2", "c3", "c4", "c5", "c6", "c7")
	f.ingest(t, "model-2", "other persona secret")

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "refunds?"})
	require.NoError(t, err)

	msgs := f.provider.Requests()[0].Messages
	require.Len(t, msgs, 3)
	block := msgs[1].Content
	assert.Contains(t, block, "[5]")
	assert.NotContains(t, block, "[6]", "sync chat retrieves five chunks")
	assert.NotContains(t, block, "other persona secret")
}

func TestChat_RetrievalDisabled(t *testing.T) {
	f := newChatFixture(mocks.Reply("ok"))
	seedModel(f.models, domain.ModelConfig{UseRetrieval: false})
	f.ingest(t, "model-1", "chunk")

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"})
	require.NoError(t, err)
	assert.Len(t, f.provider.Requests()[0].Messages, 2)
}

func TestChat_SearchFailureStillReplies(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer without context"))
	seedModel(f.models, domain.DefaultModelConfig())
	f.ingest(t, "model-1", "chunk")
	f.vectors.SearchErr = errors.New("pgvector unavailable")

	reply, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "answer without context", reply.Reply)

	msgs := f.provider.Requests()[0].Messages
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "chunk")
	}
}

func TestChat_QueryEmbeddingFailureStillReplies(t *testing.T) {
	f := newChatFixture(mocks.Reply("fine"))
	seedModel(f.models, domain.DefaultModelConfig())
	f.embedder.QueryErr = errors.New("embedding quota")

	reply, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "fine", reply.Reply)
}

func TestChat_Validation(t *testing.T) {
	f := newChatFixture(mocks.Reply("unused"))
	seedModel(f.models, domain.DefaultModelConfig())
	ctx := context.Background()

	_, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Chat(ctx, "user-1", domain.ChatRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "missing", Prompt: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, 0, f.provider.CallCount(), "no provider calls for invalid requests")
}

func TestChat_PersonaSettings(t *testing.T) {
	f := newChatFixture(mocks.Reply("ok"))
	temp := 0.2
	seedModel(f.models, domain.ModelConfig{
		SystemPrompt: "You are a pirate.",
		Temperature:  &temp,
		MaxTokens:    256,
		ChatModel:    "gpt-4o",
		APIKey:       "persona-key",
	})

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "ahoy"})
	require.NoError(t, err)

	req := f.provider.Requests()[0]
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, 256, req.MaxTokens)
	assert.Equal(t, "You are a pirate.", req.Messages[0].Content)
	assert.Empty(t, req.Tools)
	assert.Equal(t, []string{"persona-key"}, f.factory.Keys())
}

func TestChat_WebSearch(t *testing.T) {
	f := newChatFixture(
		searchCall("call_1", `{"query":"weather in Lisbon"}`),
		mocks.Reply("It is sunny."),
		mocks.Reply("Lisbon Weather"),
	)
	seedModel(f.models, domain.ModelConfig{WebSearch: true})

	reply, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "weather?"})
	require.NoError(t, err)
	assert.Equal(t, "It is sunny.", reply.Reply)
	assert.Equal(t, []string{"weather in Lisbon"}, f.searcher.Queries())
	assert.True(t, f.provider.Requests()[0].HasTool(domain.WebSearchToolName))
}

func TestChat_ContinuesConversation(t *testing.T) {
	f := newChatFixture(mocks.Reply("first answer"), mocks.Reply("Title"), mocks.Reply("second answer"))
	seedModel(f.models, domain.ModelConfig{})
	ctx := context.Background()

	first, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "first question"})
	require.NoError(t, err)

	second, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{
		ModelID:        "model-1",
		ConversationID: first.ConversationID,
		Prompt:         "second question",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, "second answer", second.Reply)

	msgs := f.provider.Requests()[2].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, "first answer", msgs[2].Content)

	stored, _ := f.conversations.ListMessages(ctx, first.ConversationID)
	assert.Len(t, stored, 4)
}

func TestChat_OtherUsersConversation(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer"))
	seedModel(f.models, domain.ModelConfig{})
	ctx := context.Background()

	reply, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "q"})
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, "user-2", domain.ChatRequest{ModelID: "model-1", ConversationID: reply.ConversationID, Prompt: "q"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChat_ConversationOfAnotherModel(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer"), mocks.Reply("Title"))
	seedModel(f.models, domain.ModelConfig{})
	require.NoError(t, f.models.Save(context.Background(), &domain.Model{ID: "model-2", Name: "Other Bot"}))
	ctx := context.Background()

	reply, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "q"})
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-2", ConversationID: reply.ConversationID, Prompt: "q"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	stored, _ := f.conversations.ListMessages(ctx, reply.ConversationID)
	assert.Len(t, stored, 2)
}

func TestChat_ClientHistory(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer"))
	seedModel(f.models, domain.ModelConfig{})

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{
		ModelID: "model-1",
		Prompt:  "q",
		History: []domain.ChatMessage{{Role: domain.RoleUser, Content: "earlier"}, {Role: domain.RoleAssistant, Content: "reply"}},
	})
	require.NoError(t, err)
	assert.Len(t, f.provider.Requests()[0].Messages, 4)
}

func TestChat_FileText(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer"))
	seedModel(f.models, domain.ModelConfig{})

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{
		ModelID:     "model-1",
		Prompt:      "summarise my file",
		FileText:    "quarterly revenue grew",
		Attachments: []domain.Attachment{{Name: "report.txt"}},
	})
	require.NoError(t, err)

	msgs := f.provider.Requests()[0].Messages
	require.Len(t, msgs, 3)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "ADDITIONAL USER DOCUMENTS"))
}

func TestChat_ProviderError(t *testing.T) {
	f := newChatFixture(mocks.Reply("unused"))
	f.provider.FailWith(0, errors.New("upstream 500"))
	seedModel(f.models, domain.ModelConfig{})

	_, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, 0, f.conversations.ConversationCount())
}

func TestChat_RecordFailureStillReplies(t *testing.T) {
	f := newChatFixture(mocks.Reply("answer"))
	seedModel(f.models, domain.ModelConfig{})
	f.conversations.AppendErr = errors.New("db down")

	reply, err := f.svc.Chat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer", reply.Reply)
	assert.Empty(t, reply.ConversationID)
}

func TestChat_Introduction(t *testing.T) {
	f := newChatFixture(mocks.Reply("Hi, I am Nova."))
	seedModel(f.models, domain.ModelConfig{})
	ctx := context.Background()

	reply, err := f.svc.Chat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Introduction: true})
	require.NoError(t, err)

	stored, _ := f.conversations.ListMessages(ctx, reply.ConversationID)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.RoleAssistant, stored[0].Role)
}

func TestStreamChat_RelaysAndRecords(t *testing.T) {
	f := newChatFixture(mocks.Reply("Greeting"))
	f.provider.StreamDeltas = []string{"Hel", "lo"}
	seedModel(f.models, domain.DefaultModelConfig())
	f.ingest(t, "model-1", "c1", "c2", "c3", "c4", "c5")
	sink := &recordingSink{}
	ctx := context.Background()

	err := f.svc.StreamChat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"}, sink)
	require.NoError(t, err)

	assert.True(t, sink.opened)
	assert.True(t, sink.closed)
	require.NotEmpty(t, sink.conversationID)
	events := sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, StreamDone, events[2])

	block := f.provider.Requests()[0].Messages[1].Content
	assert.Contains(t, block, "[3]")
	assert.NotContains(t, block, "[4]", "streaming retrieves three chunks")

	stored, err := f.conversations.ListMessages(ctx, sink.conversationID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Hello", stored[1].Content)
}

func TestStreamChat_ProviderErrorNotRecorded(t *testing.T) {
	f := newChatFixture()
	f.provider.StreamDeltas = []string{"partial"}
	f.provider.StreamErr = errors.New("upstream reset")
	seedModel(f.models, domain.ModelConfig{})
	sink := &recordingSink{}

	err := f.svc.StreamChat(context.Background(), "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"}, sink)
	require.Error(t, err)

	events := sink.Events()
	require.Len(t, events, 3)
	assert.Contains(t, events[1], StreamApology)
	assert.Equal(t, 0, f.conversations.ConversationCount())
}

func TestStreamChat_InvalidRequestDoesNotOpenSink(t *testing.T) {
	f := newChatFixture()
	sink := &recordingSink{}

	err := f.svc.StreamChat(context.Background(), "user-1", domain.ChatRequest{ModelID: "missing", Prompt: "hi"}, sink)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, sink.opened)
}

func TestStreamChat_ClientDisconnectNotRecorded(t *testing.T) {
	f := newChatFixture()
	f.provider.StreamDeltas = []string{"a", "b"}
	seedModel(f.models, domain.ModelConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.svc.StreamChat(ctx, "user-1", domain.ChatRequest{ModelID: "model-1", Prompt: "hi"}, &recordingSink{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.conversations.ConversationCount())
}
