package driving

import (
	"context"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// SyncService runs pull synchronizations and exposes their history
type SyncService interface {
	// Sync runs one pull sync for a configuration and returns its log.
	// Configuration errors (inactive, wrong type, run in progress) return no log.
	// A run-level failure returns the FAILED log together with the error.
	Sync(ctx context.Context, integrationID string, source domain.SyncSource) (*domain.SyncLog, error)

	// History returns the most recent logs for a configuration, newest first
	History(ctx context.Context, integrationID string, limit int) ([]*domain.SyncLog, error)
}

// WebhookIngestor runs the record pipeline over a pushed payload
type WebhookIngestor interface {
	// Ingest processes a raw JSON body (object or array of objects).
	// A run-level failure returns the FAILED log together with the error.
	Ingest(ctx context.Context, integrationID string, body []byte) (*domain.SyncLog, error)
}

// Scheduler manages the periodic sync of due configurations
type Scheduler interface {
	// Start begins the scheduler
	Start(ctx context.Context) error

	// Stop stops the scheduler, waiting for an in-flight tick
	Stop(ctx context.Context) error
}
