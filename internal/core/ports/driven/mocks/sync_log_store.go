package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

var _ driven.SyncLogStore = (*MockSyncLogStore)(nil)

// MockSyncLogStore is an in-memory SyncLogStore for testing
type MockSyncLogStore struct {
	mu   sync.RWMutex
	logs map[string]*domain.SyncLog
	seq  []string

	// Custom behavior hooks (optional)
	CreateFn func(log *domain.SyncLog) error
	UpdateFn func(log *domain.SyncLog) error
}

// NewMockSyncLogStore creates a new MockSyncLogStore
func NewMockSyncLogStore() *MockSyncLogStore {
	return &MockSyncLogStore{
		logs: make(map[string]*domain.SyncLog),
	}
}

func (m *MockSyncLogStore) Create(ctx context.Context, log *domain.SyncLog) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(log); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.logs[log.ID]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *log
	m.logs[log.ID] = &cp
	m.seq = append(m.seq, log.ID)
	return nil
}

func (m *MockSyncLogStore) Update(ctx context.Context, log *domain.SyncLog) error {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(log); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.logs[log.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.IsCompleted() {
		return domain.ErrLogCompleted
	}
	cp := *log
	m.logs[log.ID] = &cp
	return nil
}

func (m *MockSyncLogStore) Get(ctx context.Context, id string) (*domain.SyncLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log, ok := m.logs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

func (m *MockSyncLogStore) ListByIntegration(ctx context.Context, integrationID string, limit int) ([]*domain.SyncLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SyncLog
	// Insertion order breaks ties between logs started in the same instant.
	for i := len(m.seq) - 1; i >= 0; i-- {
		log := m.logs[m.seq[i]]
		if log.IntegrationConfigID == integrationID {
			cp := *log
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Helper methods for testing

// All returns every stored log in creation order
func (m *MockSyncLogStore) All() []*domain.SyncLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.SyncLog, 0, len(m.seq))
	for _, id := range m.seq {
		cp := *m.logs[id]
		result = append(result, &cp)
	}
	return result
}

func (m *MockSyncLogStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}
