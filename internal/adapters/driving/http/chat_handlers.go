package http

import (
	"net/http"
	"strconv"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// ChatResponse is the body of a synchronous chat turn
// @Description Assistant reply; the conversation ID is in the X-Conversation-ID header
type ChatResponse struct {
	Reply string `json:"reply" example:"Hello! How can I help?"`
}

// Chat endpoints

// handleChat godoc
// @Summary      Chat
// @Description  Run one chat turn against a persona and return the whole reply
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ChatRequest  true  "Chat turn"
// @Success      200      {object}  ChatResponse
// @Header       200      {string}  X-Conversation-ID  "Conversation the turn was recorded under"
// @Failure      400      {object}  ErrorResponse  "Missing prompt or model_id"
// @Failure      404      {object}  ErrorResponse  "Model or conversation not found"
// @Failure      502      {object}  ErrorResponse  "AI provider error"
// @Router       /chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.chatService.Chat(r.Context(), GetAuthContext(r.Context()).UserID, req)
	if err != nil {
		s.writeServiceError(w, err, "chat failed")
		return
	}

	if reply.ConversationID != "" {
		w.Header().Set(conversationIDHeader, reply.ConversationID)
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply.Reply})
}

// handleChatStream godoc
// @Summary      Streaming chat
// @Description  Run one chat turn and stream provider chunks as server-sent events ("data: <json>"), ending with "data: [DONE]". Once streaming has started, errors arrive as an apology chunk rather than an HTTP status.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        request  body      domain.ChatRequest  true  "Chat turn"
// @Success      200      {string}  string  "event stream"
// @Header       200      {string}  X-Conversation-ID  "Conversation the turn will be recorded under"
// @Failure      400      {object}  ErrorResponse  "Missing prompt or model_id"
// @Failure      404      {object}  ErrorResponse  "Model or conversation not found"
// @Router       /chat/stream [post]
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := GetAuthContext(r.Context()).UserID
	sink := newSSESink(w)

	err := s.chatService.StreamChat(r.Context(), userID, req, sink)
	if err == nil {
		return
	}
	if sink.opened {
		// Headers are out; the relay already told the client
		s.logger.Warn("stream ended with error", "user_id", userID, "model_id", req.ModelID, "error", err)
		return
	}
	s.writeServiceError(w, err, "chat failed")
}

// Conversation endpoints

// handleListConversations godoc
// @Summary      List conversations
// @Description  List the current user's conversations, most recently active first
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (default 20, max 100)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   domain.Conversation
// @Router       /conversations [get]
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	convs, err := s.conversationService.List(r.Context(), GetAuthContext(r.Context()).UserID, limit, offset)
	if err != nil {
		s.writeServiceError(w, err, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// handleListMessages godoc
// @Summary      List messages
// @Description  List a conversation's messages in order
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {array}   domain.StoredMessage
// @Failure      404  {object}  ErrorResponse  "Conversation not found"
// @Router       /conversations/{id}/messages [get]
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.conversationService.Messages(r.Context(), GetAuthContext(r.Context()).UserID, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []*domain.StoredMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleDeleteConversation godoc
// @Summary      Delete conversation
// @Description  Delete one of the current user's conversations
// @Tags         Conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Conversation not found"
// @Router       /conversations/{id} [delete]
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.conversationService.Delete(r.Context(), GetAuthContext(r.Context()).UserID, r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "failed to delete conversation")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// queryInt parses a non-negative integer query parameter
func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
