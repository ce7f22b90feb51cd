package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

var _ driven.AssetStore = (*MockAssetStore)(nil)

// MockAssetStore is an in-memory AssetStore for testing
type MockAssetStore struct {
	mu      sync.RWMutex
	assets  map[string]*domain.Asset
	byIdent map[string]string
	nextID  int

	// Custom behavior hooks (optional)
	FindFn   func(identifier string) (*domain.Asset, error)
	CreateFn func(fields domain.Record) error
	UpdateFn func(id string, fields domain.Record) error
}

// NewMockAssetStore creates a new MockAssetStore
func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{
		assets:  make(map[string]*domain.Asset),
		byIdent: make(map[string]string),
	}
}

func (m *MockAssetStore) FindByUniqueIdentifier(ctx context.Context, identifier string) (*domain.Asset, error) {
	if m.FindFn != nil {
		return m.FindFn(identifier)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byIdent[identifier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAsset(m.assets[id]), nil
}

func (m *MockAssetStore) Create(ctx context.Context, fields domain.Record, actorID string) (*domain.Asset, error) {
	if m.CreateFn != nil {
		if err := m.CreateFn(fields); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	ident := fmt.Sprint(fields[domain.UniqueIdentifierField])
	if fields[domain.UniqueIdentifierField] == nil || ident == "" {
		ident = fmt.Sprintf("AST-%08X", m.nextID)
	}
	if _, exists := m.byIdent[ident]; exists {
		return nil, domain.ErrAlreadyExists
	}

	rest := fields.Clone()
	delete(rest, domain.UniqueIdentifierField)
	now := time.Now()
	asset := &domain.Asset{
		ID:               fmt.Sprintf("asset-%d", m.nextID),
		UniqueIdentifier: ident,
		Fields:           rest,
		CreatedBy:        actorID,
		UpdatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.assets[asset.ID] = asset
	m.byIdent[ident] = asset.ID
	return copyAsset(asset), nil
}

func (m *MockAssetStore) Update(ctx context.Context, id string, fields domain.Record, actorID string) (*domain.Asset, error) {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(id, fields); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for k, v := range fields {
		if k == domain.UniqueIdentifierField {
			continue
		}
		asset.Fields[k] = v
	}
	asset.UpdatedBy = actorID
	asset.UpdatedAt = time.Now()
	return copyAsset(asset), nil
}

func (m *MockAssetStore) Get(ctx context.Context, id string) (*domain.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asset, ok := m.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAsset(asset), nil
}

// Helper methods for testing

// Seed inserts an asset directly
func (m *MockAssetStore) Seed(asset *domain.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyAsset(asset)
	if cp.Fields == nil {
		cp.Fields = domain.Record{}
	}
	m.assets[cp.ID] = cp
	m.byIdent[cp.UniqueIdentifier] = cp.ID
}

// ByIdentifier returns the stored asset for an identifier, or nil
func (m *MockAssetStore) ByIdentifier(identifier string) *domain.Asset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byIdent[identifier]
	if !ok {
		return nil
	}
	return copyAsset(m.assets[id])
}

func (m *MockAssetStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

func copyAsset(a *domain.Asset) *domain.Asset {
	cp := *a
	cp.Fields = a.Fields.Clone()
	return &cp
}
