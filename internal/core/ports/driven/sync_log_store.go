package driven

import (
	"context"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// SyncLogStore persists sync run audit records.
// A log whose CompletedAt is set is immutable: Update returns domain.ErrLogCompleted.
type SyncLogStore interface {
	Create(ctx context.Context, log *domain.SyncLog) error
	Update(ctx context.Context, log *domain.SyncLog) error
	Get(ctx context.Context, id string) (*domain.SyncLog, error)

	// ListByIntegration returns the most recent logs for a configuration, newest first
	ListByIntegration(ctx context.Context, integrationID string, limit int) ([]*domain.SyncLog, error)
}
