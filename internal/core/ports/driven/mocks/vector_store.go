package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

var _ driven.VectorStore = (*MockVectorStore)(nil)

// MockVectorStore is an in-memory VectorStore using exact cosine similarity
type MockVectorStore struct {
	mu   sync.RWMutex
	rows []*domain.EmbeddingRow

	// SearchErr, InsertErr, DeleteErr and CountErr are returned when set
	SearchErr error
	InsertErr error
	DeleteErr error
	CountErr  error

	// Ops records "insert" and "delete" calls in order
	Ops []string
}

// NewMockVectorStore creates a new MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{}
}

func (m *MockVectorStore) InsertRows(ctx context.Context, rows []*domain.EmbeddingRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, "insert")
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *MockVectorStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, "delete")
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.OwnerID != ownerID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, embedding []float32, ownerID string, matchCount int) ([]*domain.RetrievedChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	var results []*domain.RetrievedChunk
	for _, r := range m.rows {
		if ownerID != "" && r.OwnerID != ownerID {
			continue
		}
		results = append(results, &domain.RetrievedChunk{
			Content: r.Content,
			Score:   cosine(embedding, r.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > matchCount {
		results = results[:matchCount]
	}
	return results, nil
}

func (m *MockVectorStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	n := 0
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// Rows returns the rows stored for an owner
func (m *MockVectorStore) Rows(ownerID string) []*domain.EmbeddingRow {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.EmbeddingRow
	for _, r := range m.rows {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
