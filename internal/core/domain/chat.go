package domain

import "time"

// MessageRole is the speaker of a chat message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// IsValid returns true if this is a known message role
func (r MessageRole) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// ChatMessage is one turn as consumed and produced by the chat pipeline.
// Within a conversation, messages keep insertion order.
type ChatMessage struct {
	Role        MessageRole  `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolCallID  string       `json:"tool_call_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

// Attachment describes a file the user sent along with a prompt.
// Only the descriptor is persisted; extracted text is request-scoped.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // Raw JSON arguments
}

// ToolDefinition describes a function offered to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// WebSearchToolName is the function name of the web-search tool
const WebSearchToolName = "web_search"

// WebSearchTool returns the definition of the web-search tool.
// It takes a single string argument, "query".
func WebSearchTool() ToolDefinition {
	return ToolDefinition{
		Name:        WebSearchToolName,
		Description: "Search the web for current information that is not in the conversation or documents.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

// RetrievedChunk is one nearest-neighbour search result. Never persisted.
type RetrievedChunk struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// ChatRequest is an incoming chat turn from a user
type ChatRequest struct {
	ModelID         string        `json:"model_id"`
	ConversationID  string        `json:"conversation_id,omitempty"`
	NewConversation bool          `json:"new_conversation,omitempty"`
	Prompt          string        `json:"prompt"`
	FileText        string        `json:"file_text,omitempty"`
	Attachments     []Attachment  `json:"attachments,omitempty"`
	History         []ChatMessage `json:"history,omitempty"`
	Introduction    bool          `json:"introduction,omitempty"`
}

// ChatReply is the result of a synchronous chat turn
type ChatReply struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"-"`
}
