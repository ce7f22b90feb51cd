package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// syncWorld is the per-scenario state of the sync feature suite.
type syncWorld struct {
	t   *testing.T
	f   *syncFixture
	cfg *domain.IntegrationConfig
	log *domain.SyncLog
	err error
}

func (w *syncWorld) activeIntegration(strategy string) error {
	w.f = newSyncFixture(w.t, "[]")
	w.cfg = w.f.addConfig(w.t, func(cfg *domain.IntegrationConfig) {
		cfg.ConflictStrategy = domain.ConflictResolutionStrategy(strategy)
		cfg.SyncInterval = "6h"
	})
	return nil
}

func (w *syncWorld) usesStrategy(strategy string) error {
	cfg, err := w.f.configs.Get(context.Background(), w.cfg.ID)
	if err != nil {
		return err
	}
	cfg.ConflictStrategy = domain.ConflictResolutionStrategy(strategy)
	return w.f.configs.Save(context.Background(), cfg)
}

func (w *syncWorld) endpointReturns(body *godog.DocString) error {
	w.f.fetcher.Body = []byte(body.Content)
	return nil
}

func (w *syncWorld) endpointFails(status int) error {
	w.f.fetcher.FetchFn = func(url string, _ map[string]string) ([]byte, error) {
		return nil, &domain.TransportError{URL: url, StatusCode: status}
	}
	return nil
}

func (w *syncWorld) persistingFails(identifier string) error {
	w.f.assets.CreateFn = func(fields domain.Record) error {
		if fields[domain.UniqueIdentifierField] == identifier {
			return errors.New("constraint violation")
		}
		return nil
	}
	return nil
}

func (w *syncWorld) existingAsset(identifier, description string) error {
	w.f.assets.Seed(&domain.Asset{
		ID:               "AST-EXISTING",
		UniqueIdentifier: identifier,
		Fields:           domain.Record{"assetDescription": description},
	})
	return nil
}

func (w *syncWorld) manualSyncRuns() error {
	w.log, w.err = w.f.syncs.Sync(context.Background(), w.cfg.ID, domain.SyncSourceManual)
	return nil
}

func (w *syncWorld) transportError() error {
	if !domain.IsTransportError(w.err) {
		return fmt.Errorf("expected transport error, got %v", w.err)
	}
	return nil
}

func (w *syncWorld) logStatus(status string) error {
	if w.log == nil {
		return fmt.Errorf("no sync log, error: %v", w.err)
	}
	if string(w.log.Status) != status {
		return fmt.Errorf("expected status %s, got %s (%s)", status, w.log.Status, w.log.ErrorMessage)
	}
	return nil
}

func (w *syncWorld) logCounts(total, ok, failed, skipped int) error {
	want := domain.SyncCounters{TotalRecords: total, SuccessfulSyncs: ok, FailedSyncs: failed, SkippedRecords: skipped}
	if w.log.SyncCounters != want {
		return fmt.Errorf("expected counters %+v, got %+v", want, w.log.SyncCounters)
	}
	return nil
}

func (w *syncWorld) assetDescription(identifier, description string) error {
	asset := w.f.assets.ByIdentifier(identifier)
	if asset == nil {
		return fmt.Errorf("asset %s not found", identifier)
	}
	if got := asset.Fields["assetDescription"]; got != description {
		return fmt.Errorf("expected description %q, got %v", description, got)
	}
	return nil
}

func (w *syncWorld) assetCount(n int) error {
	if got := w.f.assets.Count(); got != n {
		return fmt.Errorf("expected %d assets, got %d", n, got)
	}
	return nil
}

func (w *syncWorld) lastSyncError(fragment string) error {
	cfg, err := w.f.configs.Get(context.Background(), w.cfg.ID)
	if err != nil {
		return err
	}
	if !strings.Contains(cfg.LastSyncError, fragment) {
		return fmt.Errorf("expected last sync error to mention %q, got %q", fragment, cfg.LastSyncError)
	}
	return nil
}

func (w *syncWorld) nextDueIn(minutes int) error {
	cfg, err := w.f.configs.Get(context.Background(), w.cfg.ID)
	if err != nil {
		return err
	}
	want := testNow.Add(time.Duration(minutes) * time.Minute)
	if cfg.NextSyncAt == nil || !cfg.NextSyncAt.Equal(want) {
		return fmt.Errorf("expected next sync at %v, got %v", want, cfg.NextSyncAt)
	}
	return nil
}

func (w *syncWorld) ownerNotified() error {
	sent := w.f.notifier.Sent()
	if len(sent) != 1 {
		return fmt.Errorf("expected one notification, got %d", len(sent))
	}
	if sent[0].UserID != w.cfg.CreatedByID {
		return fmt.Errorf("expected notification for %s, got %s", w.cfg.CreatedByID, sent[0].UserID)
	}
	return nil
}

func TestSyncFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name: "integration-sync",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			w := &syncWorld{t: t}

			sc.Step(`^an active REST_API integration with conflict strategy "([A-Z]+)"$`, w.activeIntegration)
			sc.Step(`^the integration uses conflict strategy "([A-Z]+)"$`, w.usesStrategy)
			sc.Step(`^the endpoint returns:$`, w.endpointReturns)
			sc.Step(`^the endpoint fails with status (\d+)$`, w.endpointFails)
			sc.Step(`^persisting asset "([^"]*)" fails$`, w.persistingFails)
			sc.Step(`^an existing asset "([^"]*)" with description "([^"]*)"$`, w.existingAsset)
			sc.Step(`^a manual sync runs$`, w.manualSyncRuns)
			sc.Step(`^the sync returns a transport error$`, w.transportError)
			sc.Step(`^the sync log status is "([A-Z]+)"$`, w.logStatus)
			sc.Step(`^the sync log counts (\d+) total, (\d+) successful, (\d+) failed, (\d+) skipped$`, w.logCounts)
			sc.Step(`^asset "([^"]*)" has description "([^"]*)"$`, w.assetDescription)
			sc.Step(`^(\d+) assets? exists?$`, w.assetCount)
			sc.Step(`^the integration last sync error mentions "([^"]*)"$`, w.lastSyncError)
			sc.Step(`^the integration is next due in (\d+) minutes$`, w.nextDueIn)
			sc.Step(`^the integration owner was notified$`, w.ownerNotified)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
