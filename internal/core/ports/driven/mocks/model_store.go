package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/nova-labs/nova-core/internal/core/domain"
	"github.com/nova-labs/nova-core/internal/core/ports/driven"
)

var (
	_ driven.ModelStore         = (*MockModelStore)(nil)
	_ driven.ModelDocumentStore = (*MockModelDocumentStore)(nil)
)

// MockModelStore is an in-memory ModelStore for testing
type MockModelStore struct {
	mu     sync.RWMutex
	models map[string]*domain.Model
}

// NewMockModelStore creates a new MockModelStore
func NewMockModelStore() *MockModelStore {
	return &MockModelStore{models: make(map[string]*domain.Model)}
}

func (m *MockModelStore) Save(ctx context.Context, model *domain.Model) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *model
	m.models[model.ID] = &cp
	return nil
}

func (m *MockModelStore) Get(ctx context.Context, id string) (*domain.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	model, ok := m.models[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *model
	return &cp, nil
}

func (m *MockModelStore) List(ctx context.Context) ([]*domain.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Model, 0, len(m.models))
	for _, model := range m.models {
		cp := *model
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockModelStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.models, id)
	return nil
}

// MockModelDocumentStore is an in-memory ModelDocumentStore for testing
type MockModelDocumentStore struct {
	mu   sync.RWMutex
	docs []*domain.ModelDocument
}

// NewMockModelDocumentStore creates a new MockModelDocumentStore
func NewMockModelDocumentStore() *MockModelDocumentStore {
	return &MockModelDocumentStore{}
}

func (m *MockModelDocumentStore) SaveBatch(ctx context.Context, docs []*domain.ModelDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *MockModelDocumentStore) ListByModel(ctx context.Context, modelID string) ([]*domain.ModelDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ModelDocument
	for _, d := range m.docs {
		if d.ModelID == modelID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockModelDocumentStore) DeleteByModel(ctx context.Context, modelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.docs[:0]
	for _, d := range m.docs {
		if d.ModelID != modelID {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}
