package driven

import (
	"context"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// AssetStore is the asset CRUD collaborator the sync pipeline writes through.
type AssetStore interface {
	// FindByUniqueIdentifier returns domain.ErrNotFound when no asset matches
	FindByUniqueIdentifier(ctx context.Context, identifier string) (*domain.Asset, error)

	// Create inserts a new asset from a mapped record. A record without a
	// uniqueIdentifier gets a generated one. Duplicate identifiers fail with
	// domain.ErrAlreadyExists.
	Create(ctx context.Context, fields domain.Record, actorID string) (*domain.Asset, error)

	// Update writes the given fields onto an existing asset. Fields absent
	// from the record are left as they are.
	Update(ctx context.Context, id string, fields domain.Record, actorID string) (*domain.Asset, error)

	Get(ctx context.Context, id string) (*domain.Asset, error)
}
