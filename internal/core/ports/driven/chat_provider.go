package driven

import (
	"context"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// ChatRequest is a chat completion call
type ChatRequest struct {
	Model       string
	Messages    []domain.ChatMessage
	MaxTokens   int
	Temperature float64
	Tools       []domain.ToolDefinition
}

// HasTool reports whether a tool with the given name is offered
func (r ChatRequest) HasTool(name string) bool {
	for _, t := range r.Tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// ChatCompletion is a non-streaming completion result
type ChatCompletion struct {
	Content   string
	ToolCalls []domain.ToolCall
}

// StreamChunk is one provider streaming event.
// Raw is the provider's own JSON chunk, relayed verbatim to clients.
type StreamChunk struct {
	Raw   []byte
	Delta string
}

// ChatProvider talks to a chat completion endpoint
type ChatProvider interface {
	// Complete performs one chat completion call
	Complete(ctx context.Context, req ChatRequest) (*ChatCompletion, error)

	// Stream performs a streaming completion, invoking onChunk for every
	// chunk event in arrival order. Returning an error from onChunk stops
	// the stream. Cancelling ctx aborts the upstream request.
	Stream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk) error) error

	// Ping verifies the provider is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the provider
	Close() error
}
