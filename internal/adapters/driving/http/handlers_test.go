package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// Health endpoints

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := decodeBody[StatusResponse](t, rec).Status; got != "ok" {
		t.Errorf("expected status ok, got %q", got)
	}
}

func TestHandleVersion(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/version", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := decodeBody[VersionResponse](t, rec).Version; got != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", got)
	}
}

func TestHandleReady(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/ready", "", nil)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		resp := decodeBody[ReadyResponse](t, rec)
		if resp.Checks["postgres"] != "ok" {
			t.Errorf("expected postgres ok, got %q", resp.Checks["postgres"])
		}
		if _, ok := resp.Checks["redis"]; ok {
			t.Error("redis check should be omitted when not configured")
		}
	})

	t.Run("database down", func(t *testing.T) {
		ts := newTestServer(t)
		ts.db.err = errors.New("connection refused")

		rec := ts.do(http.MethodGet, "/ready", "", nil)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got %d", rec.Code)
		}
		resp := decodeBody[ReadyResponse](t, rec)
		if resp.Status != "unavailable" {
			t.Errorf("expected unavailable, got %q", resp.Status)
		}
		if resp.Checks["postgres"] != "connection refused" {
			t.Errorf("expected error detail, got %q", resp.Checks["postgres"])
		}
	})
}

// Auth endpoints

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
	}{
		{name: "success", body: domain.LoginRequest{Email: "a@example.com", Password: "pw"}, wantStatus: http.StatusOK},
		{name: "malformed body", body: "{not json", wantStatus: http.StatusBadRequest},
		{name: "missing fields", body: domain.LoginRequest{}, err: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "wrong password", body: domain.LoginRequest{Email: "a@example.com", Password: "x"}, err: domain.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "disabled account", body: domain.LoginRequest{Email: "a@example.com", Password: "pw"}, err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "store failure", body: domain.LoginRequest{Email: "a@example.com", Password: "pw"}, err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.auth.authenticateFn = func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.LoginResponse{
					Token:     "jwt",
					ExpiresAt: time.Now().Add(time.Hour),
					User:      &domain.UserSummary{ID: "u1", Email: req.Email},
				}, nil
			}

			rec := ts.do(http.MethodPost, "/api/v1/auth/login", "", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if got := decodeBody[domain.LoginResponse](t, rec).Token; got != "jwt" {
					t.Errorf("expected token jwt, got %q", got)
				}
			}
		})
	}
}

func TestHandleLogout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/auth/logout", memberToken, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(ts.auth.loggedOut) != 1 || ts.auth.loggedOut[0] != memberToken {
		t.Errorf("expected logout with caller token, got %v", ts.auth.loggedOut)
	}
}

func TestHandleLogoutAll(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/auth/logout-all", memberToken, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(ts.auth.loggedOutAll) != 1 || ts.auth.loggedOutAll[0] != "user-1" {
		t.Errorf("expected logout-all for user-1, got %v", ts.auth.loggedOutAll)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/models"},
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodPost, "/api/v1/chat/stream"},
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodGet, "/api/v1/users"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := ts.do(rt.method, rt.path, "", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}

			rec = ts.do(rt.method, rt.path, "forged", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401 for bad token, got %d", rec.Code)
			}
		})
	}
}

func TestAdminRoutes_RejectMembers(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPost, "/api/v1/users"},
		{http.MethodPut, "/api/v1/users/u2"},
		{http.MethodDelete, "/api/v1/users/u2"},
		{http.MethodPost, "/api/v1/models"},
		{http.MethodPut, "/api/v1/models/m1"},
		{http.MethodDelete, "/api/v1/models/m1"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := ts.do(rt.method, rt.path, memberToken, "{}")
			if rec.Code != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", rec.Code)
			}
		})
	}
}

// Setup and users

func TestHandleSetup(t *testing.T) {
	t.Run("creates admin", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.setupFn = func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
			return &driving.SetupResponse{User: &domain.User{ID: "u1", Email: req.Email, Role: domain.RoleAdmin}}, nil
		}

		rec := ts.do(http.MethodPost, "/api/v1/setup", "", driving.SetupRequest{Email: "a@example.com", Password: "pw", Name: "A"})

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("already complete", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.setupFn = func(ctx context.Context, req driving.SetupRequest) (*driving.SetupResponse, error) {
			return nil, domain.ErrForbidden
		}

		rec := ts.do(http.MethodPost, "/api/v1/setup", "", driving.SetupRequest{Email: "a@example.com", Password: "pw", Name: "A"})

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})
}

func TestHandleGetMe(t *testing.T) {
	ts := newTestServer(t)
	ts.users.getFn = func(ctx context.Context, id string) (*domain.User, error) {
		return &domain.User{ID: id, Email: "user@example.com", Role: domain.RoleMember, PasswordHash: "secret"}, nil
	}

	rec := ts.do(http.MethodGet, "/api/v1/me", memberToken, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("password hash leaked into response")
	}
	if got := decodeBody[domain.UserSummary](t, rec).ID; got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
}

func TestHandleCreateUser_Conflict(t *testing.T) {
	ts := newTestServer(t)
	ts.users.createFn = func(ctx context.Context, req driving.CreateUserRequest) (*domain.User, error) {
		return nil, fmt.Errorf("save user: %w", domain.ErrAlreadyExists)
	}

	rec := ts.do(http.MethodPost, "/api/v1/users", adminToken, driving.CreateUserRequest{Email: "dup@example.com", Password: "pw", Name: "D", Role: domain.RoleMember})

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleDeleteUser(t *testing.T) {
	t.Run("cannot delete self", func(t *testing.T) {
		ts := newTestServer(t)
		called := false
		ts.users.deleteFn = func(ctx context.Context, id string) error {
			called = true
			return nil
		}

		rec := ts.do(http.MethodDelete, "/api/v1/users/admin-1", adminToken, nil)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if called {
			t.Error("service should not be called")
		}
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.deleteFn = func(ctx context.Context, id string) error {
			return domain.ErrNotFound
		}

		rec := ts.do(http.MethodDelete, "/api/v1/users/u9", adminToken, nil)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

// Personas

func TestHandleCreateModel(t *testing.T) {
	t.Run("retrieval defaults on", func(t *testing.T) {
		ts := newTestServer(t)
		var got driving.CreateModelRequest
		var creator string
		ts.models.createFn = func(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error) {
			got, creator = req, creatorID
			return &driving.ModelResult{
				Model:  &domain.Model{ID: "m1", Name: req.Name, Config: req.Config},
				Ingest: &domain.IngestResult{ModelID: "m1", ChunksStored: 3},
			}, nil
		}

		rec := ts.do(http.MethodPost, "/api/v1/models", adminToken, `{"name":"Ada","config":{"system_prompt":"Be kind"}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Config.UseRetrieval {
			t.Error("expected use_retrieval to default to true")
		}
		if got.Config.SystemPrompt != "Be kind" {
			t.Errorf("expected system prompt to be decoded, got %q", got.Config.SystemPrompt)
		}
		if creator != "admin-1" {
			t.Errorf("expected creator admin-1, got %q", creator)
		}
		if res := decodeBody[driving.ModelResult](t, rec); res.Ingest == nil || res.Ingest.ChunksStored != 3 {
			t.Errorf("expected ingest result in response, got %+v", res.Ingest)
		}
	})

	t.Run("explicit retrieval off", func(t *testing.T) {
		ts := newTestServer(t)
		var got driving.CreateModelRequest
		ts.models.createFn = func(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error) {
			got = req
			return &driving.ModelResult{Model: &domain.Model{ID: "m1"}}, nil
		}

		rec := ts.do(http.MethodPost, "/api/v1/models", adminToken, `{"name":"Ada","config":{"use_retrieval":false}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
		if got.Config.UseRetrieval {
			t.Error("expected use_retrieval false")
		}
	})

	t.Run("unsupported upload", func(t *testing.T) {
		ts := newTestServer(t)
		ts.models.createFn = func(ctx context.Context, creatorID string, req driving.CreateModelRequest) (*driving.ModelResult, error) {
			return nil, fmt.Errorf("%w: photo.png", domain.ErrUnsupportedFileType)
		}

		rec := ts.do(http.MethodPost, "/api/v1/models", adminToken, `{"name":"Ada"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "photo.png") {
			t.Errorf("expected file name in message, got %q", msg)
		}
	})
}

func TestHandleUpdateModel_Documents(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNil   bool
		wantCount int
	}{
		{name: "absent keeps documents", body: `{"name":"Ada"}`, wantNil: true},
		{name: "empty clears documents", body: `{"documents":[]}`, wantNil: false, wantCount: 0},
		{name: "replaces documents", body: `{"documents":[{"name":"a.txt","mime_type":"text/plain","content":"hi"}]}`, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			var got driving.UpdateModelRequest
			ts.models.updateFn = func(ctx context.Context, id string, req driving.UpdateModelRequest) (*driving.ModelResult, error) {
				got = req
				return &driving.ModelResult{Model: &domain.Model{ID: id}}, nil
			}

			rec := ts.do(http.MethodPut, "/api/v1/models/m1", adminToken, tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}
			if (got.Documents == nil) != tt.wantNil {
				t.Errorf("documents nil = %v, want %v", got.Documents == nil, tt.wantNil)
			}
			if len(got.Documents) != tt.wantCount {
				t.Errorf("expected %d documents, got %d", tt.wantCount, len(got.Documents))
			}
		})
	}
}

func TestHandleModels_MemberCanRead(t *testing.T) {
	ts := newTestServer(t)
	ts.models.listFn = func(ctx context.Context) ([]*domain.Model, error) {
		return []*domain.Model{{ID: "m1", Name: "Ada"}}, nil
	}
	ts.models.getFn = func(ctx context.Context, id string) (*domain.ModelWithDocuments, error) {
		if id != "m1" {
			return nil, domain.ErrNotFound
		}
		return &domain.ModelWithDocuments{Model: &domain.Model{ID: "m1"}, Documents: []*domain.ModelDocument{}, ChunksStored: 7}, nil
	}

	rec := ts.do(http.MethodGet, "/api/v1/models", memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status 200, got %d", rec.Code)
	}
	if models := decodeBody[[]domain.Model](t, rec); len(models) != 1 {
		t.Errorf("expected 1 model, got %d", len(models))
	}

	rec = ts.do(http.MethodGet, "/api/v1/models/m1", memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", rec.Code)
	}
	if got := decodeBody[domain.ModelWithDocuments](t, rec); got.ChunksStored != 7 {
		t.Errorf("expected chunks_stored 7, got %d", got.ChunksStored)
	}

	rec = ts.do(http.MethodGet, "/api/v1/models/missing", memberToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: expected status 404, got %d", rec.Code)
	}
}

func TestHandleListModels_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/models", memberToken, nil)

	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %q", rec.Body.String())
	}
}

// Chat

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t)
	var gotUser string
	var gotReq domain.ChatRequest
	ts.chat.chatFn = func(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error) {
		gotUser, gotReq = userID, req
		return &domain.ChatReply{Reply: "Hello!", ConversationID: "conv-1"}, nil
	}

	rec := ts.do(http.MethodPost, "/api/v1/chat", memberToken, domain.ChatRequest{ModelID: "m1", Prompt: "Hi", ConversationID: "conv-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"reply":"Hello!"}` {
		t.Errorf("unexpected body %s", got)
	}
	if got := rec.Header().Get(conversationIDHeader); got != "conv-1" {
		t.Errorf("expected conversation header conv-1, got %q", got)
	}
	if gotUser != "user-1" {
		t.Errorf("expected user-1, got %q", gotUser)
	}
	if gotReq.ModelID != "m1" || gotReq.Prompt != "Hi" {
		t.Errorf("request not decoded: %+v", gotReq)
	}
}

func TestHandleChat_NoConversationHeaderWhenUnrecorded(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.chatFn = func(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error) {
		return &domain.ChatReply{Reply: "Hello!"}, nil
	}

	rec := ts.do(http.MethodPost, "/api/v1/chat", memberToken, domain.ChatRequest{ModelID: "m1", Prompt: "Hi"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if _, ok := rec.Header()[conversationIDHeader]; ok {
		t.Error("expected no conversation header")
	}
}

func TestHandleChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "missing prompt", err: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "unknown model", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "provider down", err: fmt.Errorf("chat completion: %w: %w", domain.ErrServiceUnavailable, errors.New("timeout")), wantStatus: http.StatusBadGateway},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.chat.chatFn = func(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatReply, error) {
				return nil, tt.err
			}

			rec := ts.do(http.MethodPost, "/api/v1/chat", memberToken, domain.ChatRequest{ModelID: "m1"})

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if strings.Contains(rec.Body.String(), "timeout") || strings.Contains(rec.Body.String(), "boom") {
				t.Errorf("internal error leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestHandleChatStream(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamFn = func(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error {
		if err := sink.Open("conv-9"); err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.WriteEvent([]byte(`{"choices":[{"delta":{"content":"Hi"}}]}`)); err != nil {
			return err
		}
		return sink.WriteEvent([]byte("[DONE]"))
	}

	rec := ts.do(http.MethodPost, "/api/v1/chat/stream", memberToken, domain.ChatRequest{ModelID: "m1", Prompt: "Hi"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("expected event-stream content type, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("expected no-cache, got %q", got)
	}
	if got := rec.Header().Get(conversationIDHeader); got != "conv-9" {
		t.Errorf("expected conversation header conv-9, got %q", got)
	}
	want := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Errorf("unexpected stream body:\n%q\nwant:\n%q", rec.Body.String(), want)
	}
	if !rec.Flushed {
		t.Error("expected frames to be flushed")
	}
}

func TestHandleChatStream_RejectedBeforeOpen(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamFn = func(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error {
		return domain.ErrInvalidInput
	}

	rec := ts.do(http.MethodPost, "/api/v1/chat/stream", memberToken, domain.ChatRequest{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected JSON error, got content type %q", got)
	}
}

func TestHandleChatStream_ErrorAfterOpen(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamFn = func(ctx context.Context, userID string, req domain.ChatRequest, sink driving.StreamSink) error {
		if err := sink.Open("conv-9"); err != nil {
			return err
		}
		_ = sink.WriteEvent([]byte(`{"choices":[{"delta":{"content":"Sorry"}}]}`))
		return domain.ErrServiceUnavailable
	}

	rec := ts.do(http.MethodPost, "/api/v1/chat/stream", memberToken, domain.ChatRequest{ModelID: "m1", Prompt: "Hi"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status to stay 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("JSON error written into stream: %q", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "data: ") {
		t.Errorf("expected partial stream, got %q", rec.Body.String())
	}
}

// Conversations

func TestHandleListConversations(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 0, wantOffset: 0},
		{name: "paged", query: "?limit=5&offset=10", wantLimit: 5, wantOffset: 10},
		{name: "garbage ignored", query: "?limit=abc&offset=-3", wantLimit: 0, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			var gotUser string
			var gotLimit, gotOffset int
			ts.conversations.listFn = func(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, error) {
				gotUser, gotLimit, gotOffset = userID, limit, offset
				return []*domain.Conversation{{ID: "c1", UserID: userID, Title: "Hello"}}, nil
			}

			rec := ts.do(http.MethodGet, "/api/v1/conversations"+tt.query, memberToken, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}
			if gotUser != "user-1" {
				t.Errorf("expected user-1, got %q", gotUser)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("expected limit=%d offset=%d, got limit=%d offset=%d", tt.wantLimit, tt.wantOffset, gotLimit, gotOffset)
			}
		})
	}
}

func TestHandleListMessages(t *testing.T) {
	ts := newTestServer(t)
	ts.conversations.messagesFn = func(ctx context.Context, userID, conversationID string) ([]*domain.StoredMessage, error) {
		if conversationID != "c1" {
			return nil, domain.ErrNotFound
		}
		return []*domain.StoredMessage{
			{ID: "m1", ConversationID: "c1", Seq: 1, ChatMessage: domain.ChatMessage{Role: domain.RoleUser, Content: "Hi"}},
			{ID: "m2", ConversationID: "c1", Seq: 2, ChatMessage: domain.ChatMessage{Role: domain.RoleAssistant, Content: "Hello"}},
		}, nil
	}

	rec := ts.do(http.MethodGet, "/api/v1/conversations/c1/messages", memberToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	msgs := decodeBody[[]domain.StoredMessage](t, rec)
	if len(msgs) != 2 || msgs[0].Content != "Hi" || msgs[1].Role != domain.RoleAssistant {
		t.Errorf("unexpected messages %+v", msgs)
	}

	rec = ts.do(http.MethodGet, "/api/v1/conversations/other/messages", memberToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleDeleteConversation(t *testing.T) {
	ts := newTestServer(t)
	var gotUser, gotID string
	ts.conversations.deleteFn = func(ctx context.Context, userID, conversationID string) error {
		gotUser, gotID = userID, conversationID
		return nil
	}

	rec := ts.do(http.MethodDelete, "/api/v1/conversations/c1", memberToken, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotUser != "user-1" || gotID != "c1" {
		t.Errorf("expected user-1/c1, got %s/%s", gotUser, gotID)
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	ts := newTestServer(t)
	body := `{"prompt":"` + strings.Repeat("a", maxJSONBody) + `"}`

	rec := ts.do(http.MethodPost, "/api/v1/chat", memberToken, body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}
}

func TestHandleSwaggerDoc_NotRegistered(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/swagger/doc.json", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 without a registered doc, got %d", rec.Code)
	}
}
