package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

type matchOutcome int

const (
	matchNotFound matchOutcome = iota
	matchFound
	// matchLookupFailed is routed like matchNotFound: the record is created,
	// possibly duplicating an asset, rather than aborting the run.
	matchLookupFailed
)

func (o matchOutcome) String() string {
	switch o {
	case matchFound:
		return "found"
	case matchLookupFailed:
		return "lookup_failed"
	}
	return "not_found"
}

type matchResult struct {
	outcome matchOutcome
	asset   *domain.Asset
	err     error
}

// existing returns the matched asset, or nil for any non-found outcome.
func (r matchResult) existing() *domain.Asset {
	if r.outcome != matchFound {
		return nil
	}
	return r.asset
}

// assetMatcher looks up existing assets by unique identifier.
type assetMatcher struct {
	assets driven.AssetStore
	logger *slog.Logger
}

func (m assetMatcher) match(ctx context.Context, integrationID, identifier string) matchResult {
	if identifier == "" {
		return matchResult{outcome: matchNotFound}
	}

	asset, err := m.assets.FindByUniqueIdentifier(ctx, identifier)
	switch {
	case err == nil && asset != nil:
		return matchResult{outcome: matchFound, asset: asset}
	case err == nil, errors.Is(err, domain.ErrNotFound):
		return matchResult{outcome: matchNotFound}
	}

	m.logger.Warn("asset lookup failed, treating record as new",
		"integration_id", integrationID,
		"identifier", identifier,
		"error", err,
	)
	return matchResult{outcome: matchLookupFailed, err: err}
}
