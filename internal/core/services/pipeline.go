package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// recordPipeline is the map → match → resolve → apply stage shared by pull
// syncs and webhook pushes.
type recordPipeline struct {
	assets  driven.AssetStore
	matcher assetMatcher
	logger  *slog.Logger
}

func newRecordPipeline(assets driven.AssetStore, logger *slog.Logger) *recordPipeline {
	return &recordPipeline{
		assets:  assets,
		matcher: assetMatcher{assets: assets, logger: logger},
		logger:  logger,
	}
}

// run processes every record in the payload. A failing record is counted
// and summarised in details; it never stops the loop.
func (p *recordPipeline) run(ctx context.Context, cfg *domain.IntegrationConfig, payload domain.Payload, details *domain.SyncDetails) domain.SyncCounters {
	counters := domain.SyncCounters{TotalRecords: len(payload)}
	strategy := cfg.Strategy()

	for i, raw := range payload {
		action, identifier, err := p.process(ctx, cfg, strategy, raw)
		if err != nil {
			counters.FailedSyncs++
			details.AddRecordError(domain.RecordError{
				Index:      i,
				Identifier: identifier,
				Error:      err.Error(),
			})
			p.logger.Warn("record sync failed",
				"integration_id", cfg.ID,
				"index", i,
				"identifier", identifier,
				"error", err,
			)
			continue
		}

		if action == domain.ActionSkip {
			counters.SkippedRecords++
		} else {
			counters.SuccessfulSyncs++
		}
	}

	return counters
}

func (p *recordPipeline) process(ctx context.Context, cfg *domain.IntegrationConfig, strategy domain.ConflictStrategy, raw []byte) (domain.ResolutionAction, string, error) {
	external, err := domain.DecodeRecord(raw)
	if err != nil {
		return 0, "", err
	}

	mapped := cfg.FieldMapping.Apply(external)
	identifier, err := identifierOf(mapped)
	if err != nil {
		return 0, "", err
	}
	if identifier != "" {
		mapped[domain.UniqueIdentifierField] = identifier
	}

	match := p.matcher.match(ctx, cfg.ID, identifier)
	resolution := domain.Resolve(strategy, match.existing(), mapped)

	switch resolution.Action {
	case domain.ActionCreate:
		if _, err := p.assets.Create(ctx, resolution.Fields, cfg.CreatedByID); err != nil {
			return resolution.Action, identifier, fmt.Errorf("create asset: %w", err)
		}
	case domain.ActionUpdate:
		if _, err := p.assets.Update(ctx, match.asset.ID, resolution.Fields, cfg.CreatedByID); err != nil {
			return resolution.Action, identifier, fmt.Errorf("update asset %s: %w", match.asset.ID, err)
		}
	}
	return resolution.Action, identifier, nil
}

// identifierOf reads the mapped unique identifier as a string. Numbers are
// accepted; objects and arrays are not.
func identifierOf(mapped domain.Record) (string, error) {
	v, ok := mapped[domain.UniqueIdentifierField]
	if !ok || v == nil {
		return "", nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %s must be a scalar", domain.ErrInvalidInput, domain.UniqueIdentifierField)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, domain.UniqueIdentifierField, err)
	}
	return strings.TrimSpace(s), nil
}
