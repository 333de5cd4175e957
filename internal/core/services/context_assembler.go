package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nova-labs/nova-core/internal/core/domain"
)

// Assembly limits
const (
	DefaultChunkCharLimit   = 800
	SyncHistoryTurns        = 5
	StreamHistoryTurns      = 3
	StreamHistoryCharLimit  = 300
	charsPerTokenEstimate   = 3
	additionalDocumentsHead = "ADDITIONAL USER DOCUMENTS"
)

// ContextInput is everything a chat turn contributes to the prompt
type ContextInput struct {
	SystemPrompt string
	Chunks       []*domain.RetrievedChunk
	FileText     string
	History      []domain.ChatMessage
	UserPrompt   string
}

// AssembleOptions controls truncation and budget
type AssembleOptions struct {
	// ChunkCharLimit caps each retrieved chunk (0 = no cap)
	ChunkCharLimit int
	// HistoryTurns is how many trailing history messages are kept
	HistoryTurns int
	// HistoryCharLimit caps each history message (0 = no cap)
	HistoryCharLimit int
	// CharBudget bounds the optional blocks (0 = unbounded)
	CharBudget int
}

// SyncAssembleOptions are used by the synchronous chat endpoint
func SyncAssembleOptions() AssembleOptions {
	return AssembleOptions{
		ChunkCharLimit: DefaultChunkCharLimit,
		HistoryTurns:   SyncHistoryTurns,
	}
}

// StreamAssembleOptions are used by the low-latency streaming endpoint.
// The budget estimates three characters per token of maxTokens.
func StreamAssembleOptions(maxTokens int) AssembleOptions {
	return AssembleOptions{
		ChunkCharLimit:   DefaultChunkCharLimit,
		HistoryTurns:     StreamHistoryTurns,
		HistoryCharLimit: StreamHistoryCharLimit,
		CharBudget:       maxTokens * charsPerTokenEstimate,
	}
}

// AssembleContext builds the message list for a completion call.
//
// Order is fixed: system prompt, numbered retrieved context, additional user
// documents, trailing history, then the user prompt. With a budget, the
// running length starts at the system prompt length and each optional block
// is added only while the total stays strictly below the budget. History is
// added whole or not at all. The user prompt is always last and never cut.
func AssembleContext(in ContextInput, opts AssembleOptions) []domain.ChatMessage {
	systemPrompt := in.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}

	msgs := []domain.ChatMessage{{Role: domain.RoleSystem, Content: systemPrompt}}
	used := utf8.RuneCountInString(systemPrompt)

	fits := func(n int) bool {
		return opts.CharBudget <= 0 || used+n < opts.CharBudget
	}

	if block := retrievedContextBlock(in.Chunks, opts.ChunkCharLimit); block != "" && fits(utf8.RuneCountInString(block)) {
		msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: block})
		used += utf8.RuneCountInString(block)
	}

	if strings.TrimSpace(in.FileText) != "" {
		block := additionalDocumentsHead + ":\n" + in.FileText
		if n := utf8.RuneCountInString(block); fits(n) {
			msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: block})
			used += n
		}
	}

	if history := trailingHistory(in.History, opts.HistoryTurns, opts.HistoryCharLimit); len(history) > 0 {
		size := 0
		for _, m := range history {
			size += utf8.RuneCountInString(m.Content)
		}
		if fits(size) {
			msgs = append(msgs, history...)
		}
	}

	return append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: in.UserPrompt})
}

func retrievedContextBlock(chunks []*domain.RetrievedChunk, limit int) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Use the following context from the persona's documents when it is relevant:\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, truncateChars(c.Content, limit))
	}
	return b.String()
}

// trailingHistory keeps the last n user and assistant turns in order.
func trailingHistory(history []domain.ChatMessage, n, charLimit int) []domain.ChatMessage {
	var turns []domain.ChatMessage
	for _, m := range history {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			turns = append(turns, m)
		}
	}
	if n >= 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	out := make([]domain.ChatMessage, len(turns))
	for i, m := range turns {
		out[i] = domain.ChatMessage{Role: m.Role, Content: truncateChars(m.Content, charLimit)}
	}
	return out
}

// truncateChars cuts s to at most limit runes. limit <= 0 keeps s whole.
func truncateChars(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
