package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// Mock services for testing

const (
	adminToken  = "admin-token"
	memberToken = "member-token"
)

type mockAuthService struct {
	authenticateFn func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateErr    error
	loggedOut      []string
	loggedOutAll   []string
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	switch token {
	case adminToken:
		return &domain.AuthContext{UserID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, SessionID: "s-admin"}, nil
	case memberToken:
		return &domain.AuthContext{UserID: "user-1", Email: "user@example.com", Role: domain.RoleMember, SessionID: "s-user"}, nil
	}
	return nil, domain.ErrTokenInvalid
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return nil
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID string) error {
	m.loggedOutAll = append(m.loggedOutAll, userID)
	return nil
}

type mockUserService struct {
	setupFn  func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error)
	createFn func(ctx context.Context, req driving.CreateUserRequest) (*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	listFn   func(ctx context.Context) ([]*domain.User, error)
	updateFn func(ctx context.Context, id string, req driving.UpdateUserRequest) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockUserService) Setup(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
	if m.setupFn != nil {
		return m.setupFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Create(ctx context.Context, req driving.CreateUserRequest) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserService) List(ctx context.Context) ([]*domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Update(ctx context.Context, id string, req driving.UpdateUserRequest) (*domain.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockModelService struct {
	createFn func(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error)
	getFn    func(ctx context.Context, id string) (*domain.ModelWithDocuments, error)
	listFn   func(ctx context.Context) ([]*domain.Model, error)
	updateFn func(ctx context.Context, id string, req driving.UpdateModelRequest) (*driving.ModelResult, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockModelService) Create(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error) {
	if m.createFn != nil {
		return m.createFn(ctx, creatorID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockModelService) Get(ctx context.Context, id string) (*domain.ModelWithDocuments, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockModelService) List(ctx context.Context) ([]*domain.Model, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockModelService) Update(ctx context.Context, id string, req driving.UpdateModelRequest) (*driving.ModelResult, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockModelService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockChatService struct {
	chatFn   func(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error)
	streamFn func(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error
}

func (m *mockChatService) Chat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error) {
	if m.chatFn != nil {
		return m.chatFn(ctx, userID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChatService) StreamChat(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error {
	if m.streamFn != nil {
		return m.streamFn(ctx, userID, req, sink)
	}
	return errors.New("not implemented")
}

type mockConversationService struct {
	listFn     func(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error)
	messagesFn func(ctx context.Context, userID, conversationID string) ([]*domain.StoredMessage, error)
	deleteFn   func(ctx context.Context, userID, conversationID string) error
}

func (m *mockConversationService) List(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockConversationService) Messages(ctx context.Context, userID, conversationID string) ([]*domain.StoredMessage, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, userID, conversationID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, conversationID)
	}
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// testServer bundles a server with its mocks
type testServer struct {
	*Server
	auth          *mockAuthService
	users         *mockUserService
	models        *mockModelService
	chat          *mockChatService
	conversations *mockConversationService
	db            *mockPinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		auth:          &mockAuthService{},
		users:         &mockUserService{},
		models:        &mockModelService{},
		chat:          &mockChatService{},
		conversations: &mockConversationService{},
		db:            &mockPinger{},
	}
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.Server = NewServer(cfg, ts.auth, ts.users, ts.models, ts.chat, ts.conversations, ts.db, nil)
	return ts
}

// do sends a request through the full middleware chain
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, rec).Error
}

