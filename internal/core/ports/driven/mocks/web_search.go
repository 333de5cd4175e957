package mocks

import (
	"context"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

var _ driven.WebSearcher = (*MockWebSearcher)(nil)

// MockWebSearcher returns a fixed summary and records queries
type MockWebSearcher struct {
	mu      sync.Mutex
	queries []string

	Result string
	Err    error
}

// NewMockWebSearcher creates a searcher that returns result for every query
func NewMockWebSearcher(result string) *MockWebSearcher {
	return &MockWebSearcher{Result: result}
}

func (m *MockWebSearcher) Search(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Result, nil
}

// Queries returns every query received, in order
func (m *MockWebSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
