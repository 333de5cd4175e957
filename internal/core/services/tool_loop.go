package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

// ToolLoop runs a completion with at most one round of web-search tool calls.
type ToolLoop struct {
	searcher driven.WebSearcher
	logger   *slog.Logger
}

// NewToolLoop creates a tool loop. A nil searcher disables tool handling.
func NewToolLoop(searcher driven.WebSearcher, logger *slog.Logger) *ToolLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolLoop{searcher: searcher, logger: logger.With("component", "tool_loop")}
}

type webSearchArgs struct {
	Query string `json:"query"`
}

// Complete returns the final reply text for req.
//
// When the web-search tool is offered and the first response requests it,
// every requested call is answered with search output and the provider is
// called exactly once more. Tool calls in that second response are ignored.
// Search failures and malformed arguments become tool output text; provider
// errors are returned as is.
func (l *ToolLoop) Complete(ctx context.Context, provider driven.ChatProvider, req driven.ChatRequest) (string, error) {
	first, err := provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	if l.searcher == nil || !req.HasTool(domain.WebSearchToolName) || len(first.ToolCalls) == 0 {
		return first.Content, nil
	}

	messages := append(req.Messages[:len(req.Messages):len(req.Messages)], domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	for _, call := range first.ToolCalls {
		messages = append(messages, domain.ChatMessage{
			Role:       domain.RoleTool,
			ToolCallID: call.ID,
			Content:    l.runTool(ctx, call),
		})
	}

	followUp := req
	followUp.Messages = messages
	second, err := provider.Complete(ctx, followUp)
	if err != nil {
		return "", err
	}
	if len(second.ToolCalls) > 0 {
		l.logger.Debug("ignoring nested tool call", "calls", len(second.ToolCalls))
	}
	return second.Content, nil
}

func (l *ToolLoop) runTool(ctx context.Context, call domain.ToolCall) string {
	if call.Name != domain.WebSearchToolName {
		return fmt.Sprintf("Unknown tool %q.", call.Name)
	}

	var args webSearchArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		l.logger.Warn("malformed web search arguments", "call_id", call.ID, "arguments", call.Arguments)
		return "Unable to search: the search query was missing or malformed."
	}

	result, err := l.searcher.Search(ctx, args.Query)
	if err != nil {
		l.logger.Warn("web search failed", "query", args.Query, "error", err)
		return "Unable to search the web right now: " + err.Error()
	}
	return result
}
