package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nova-labs/nova-core/internal/core/ports/driven"
	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// StreamDone is the terminal event payload
const StreamDone = "[DONE]"

// StreamApology is sent in place of the rest of a reply when the provider fails
const StreamApology = "Sorry, something went wrong while generating a response. Please try again."

// StreamRelay forwards provider stream chunks to a sink while accumulating
// the full reply text.
type StreamRelay struct {
	logger *slog.Logger
}

// NewStreamRelay creates a new StreamRelay
func NewStreamRelay(logger *slog.Logger) *StreamRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamRelay{logger: logger.With("component", "stream_relay")}
}

// Relay streams req to sink and returns the concatenated reply.
//
// Each chunk is written to the sink as soon as it arrives, followed by a
// final [DONE] event. If the provider fails, one apologetic chunk and [DONE]
// are written and the error is returned with the partial text, which callers
// must not persist. A cancelled ctx (client gone) stops the upstream stream.
func (r *StreamRelay) Relay(ctx context.Context, provider driven.ChatProvider, req driven.ChatRequest, sink driving.StreamSink) (string, error) {
	var reply strings.Builder

	err := provider.Stream(ctx, req, func(chunk driven.StreamChunk) error {
		reply.WriteString(chunk.Delta)
		return sink.WriteEvent(chunk.Raw)
	})

	if err != nil {
		if ctx.Err() != nil {
			r.logger.Info("client disconnected, upstream stream cancelled", "partial_chars", reply.Len())
			return reply.String(), ctx.Err()
		}
		r.logger.Error("provider stream failed", "model", req.Model, "partial_chars", reply.Len(), "error", err)
		if writeErr := sink.WriteEvent(apologyChunk(req.Model)); writeErr != nil {
			return reply.String(), errors.Join(err, writeErr)
		}
		_ = sink.WriteEvent([]byte(StreamDone))
		return reply.String(), err
	}

	if err := sink.WriteEvent([]byte(StreamDone)); err != nil {
		return reply.String(), err
	}
	return reply.String(), nil
}

// apologyChunk mirrors the provider's streaming chunk shape
func apologyChunk(model string) []byte {
	data, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-error",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index":         0,
				"delta":         map[string]string{"role": "assistant", "content": StreamApology},
				"finish_reason": "stop",
			},
		},
	})
	return data
}
