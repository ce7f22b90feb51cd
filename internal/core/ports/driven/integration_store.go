package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// IntegrationStore handles integration configuration persistence (PostgreSQL)
type IntegrationStore interface {
	// Save creates or updates a configuration
	Save(ctx context.Context, cfg *domain.IntegrationConfig) error

	// Get retrieves a configuration by ID
	Get(ctx context.Context, id string) (*domain.IntegrationConfig, error)

	// GetByName retrieves a configuration by name
	GetByName(ctx context.Context, name string) (*domain.IntegrationConfig, error)

	// List retrieves all configurations, newest first
	List(ctx context.Context) ([]*domain.IntegrationConfig, error)

	// ListDue retrieves ACTIVE pull configurations whose nextSyncAt is at or before now
	ListDue(ctx context.Context, now time.Time) ([]*domain.IntegrationConfig, error)

	// ApplyDelta writes the scheduling fields of a sync outcome without
	// touching administrative fields
	ApplyDelta(ctx context.Context, id string, delta domain.ConfigDelta) error

	// Delete hard-deletes a configuration and its sync logs
	Delete(ctx context.Context, id string) error
}
