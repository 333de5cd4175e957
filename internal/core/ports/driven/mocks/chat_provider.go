package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

var _ driven.ChatProvider = (*MockChatProvider)(nil)

// MockChatProvider replays scripted completions and records every request.
type MockChatProvider struct {
	mu        sync.Mutex
	responses []*driven.ChatCompletion
	errs      []error
	requests  []driven.ChatRequest

	// StreamDeltas are emitted by Stream, one chunk each
	StreamDeltas []string
	// StreamErr is returned by Stream after all deltas are emitted
	StreamErr error
}

// NewMockChatProvider creates a provider that returns the given completions in order.
// Once the script runs out, the last completion is repeated.
func NewMockChatProvider(responses ...*driven.ChatCompletion) *MockChatProvider {
	return &MockChatProvider{responses: responses}
}

// Reply is a shorthand for a plain-text completion
func Reply(content string) *driven.ChatCompletion {
	return &driven.ChatCompletion{Content: content}
}

// FailWith makes the n-th Complete call (0-based) return err
func (m *MockChatProvider) FailWith(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.errs) <= n {
		m.errs = append(m.errs, nil)
	}
	m.errs[n] = err
}

func (m *MockChatProvider) Complete(ctx context.Context, req driven.ChatRequest) (*driven.ChatCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.requests)
	m.requests = append(m.requests, cloneRequest(req))

	if n < len(m.errs) && m.errs[n] != nil {
		return nil, m.errs[n]
	}
	if len(m.responses) == 0 {
		return nil, errors.New("mock chat provider: no scripted response")
	}
	if n >= len(m.responses) {
		n = len(m.responses) - 1
	}
	return m.responses[n], nil
}

func (m *MockChatProvider) Stream(ctx context.Context, req driven.ChatRequest, onChunk func(driven.StreamChunk) error) error {
	m.mu.Lock()
	m.requests = append(m.requests, cloneRequest(req))
	deltas := m.StreamDeltas
	streamErr := m.StreamErr
	m.mu.Unlock()

	for i, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, _ := json.Marshal(map[string]any{
			"id":     "chatcmpl-mock",
			"object": "chat.completion.chunk",
			"choices": []map[string]any{
				{"index": 0, "delta": map[string]string{"content": delta}},
			},
			"seq": i,
		})
		if err := onChunk(driven.StreamChunk{Raw: raw, Delta: delta}); err != nil {
			return err
		}
	}
	return streamErr
}

func (m *MockChatProvider) Ping(ctx context.Context) error {
	return nil
}

func (m *MockChatProvider) Close() error {
	return nil
}

// Requests returns every request received, in order
func (m *MockChatProvider) Requests() []driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.ChatRequest(nil), m.requests...)
}

// CallCount returns the number of Complete and Stream calls
func (m *MockChatProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func cloneRequest(req driven.ChatRequest) driven.ChatRequest {
	req.Messages = append(req.Messages[:0:0], req.Messages...)
	return req
}
