package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

var _ driven.IntegrationStore = (*MockIntegrationStore)(nil)

// MockIntegrationStore is an in-memory IntegrationStore for testing.
// Stored configs are copies, so callers cannot mutate them behind the store's back.
type MockIntegrationStore struct {
	mu      sync.RWMutex
	configs map[string]*domain.IntegrationConfig

	// Custom behavior hooks (optional)
	SaveFn       func(cfg *domain.IntegrationConfig) error
	ListDueFn    func(now time.Time) ([]*domain.IntegrationConfig, error)
	ApplyDeltaFn func(id string, delta domain.ConfigDelta) error
}

// NewMockIntegrationStore creates a new MockIntegrationStore
func NewMockIntegrationStore() *MockIntegrationStore {
	return &MockIntegrationStore{
		configs: make(map[string]*domain.IntegrationConfig),
	}
}

func (m *MockIntegrationStore) Save(ctx context.Context, cfg *domain.IntegrationConfig) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(cfg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.configs {
		if id != cfg.ID && existing.Name == cfg.Name {
			return domain.ErrAlreadyExists
		}
	}
	cp := cfg.Snapshot()
	m.configs[cfg.ID] = &cp
	return nil
}

func (m *MockIntegrationStore) Get(ctx context.Context, id string) (*domain.IntegrationConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := cfg.Snapshot()
	return &cp, nil
}

func (m *MockIntegrationStore) GetByName(ctx context.Context, name string) (*domain.IntegrationConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cfg := range m.configs {
		if cfg.Name == name {
			cp := cfg.Snapshot()
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockIntegrationStore) List(ctx context.Context) ([]*domain.IntegrationConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.IntegrationConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		cp := cfg.Snapshot()
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockIntegrationStore) ListDue(ctx context.Context, now time.Time) ([]*domain.IntegrationConfig, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.IntegrationConfig
	for _, cfg := range m.configs {
		if cfg.IsActive() && cfg.Pulls() && cfg.NextSyncAt != nil && !cfg.NextSyncAt.After(now) {
			cp := cfg.Snapshot()
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextSyncAt.Before(*result[j].NextSyncAt)
	})
	return result, nil
}

func (m *MockIntegrationStore) ApplyDelta(ctx context.Context, id string, delta domain.ConfigDelta) error {
	if m.ApplyDeltaFn != nil {
		if err := m.ApplyDeltaFn(id, delta); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[id]
	if !ok {
		return domain.ErrNotFound
	}
	delta.Apply(cfg)
	return nil
}

func (m *MockIntegrationStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.configs, id)
	return nil
}

// Helper methods for testing

func (m *MockIntegrationStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.configs)
}
