package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/asset-sync/internal/worker"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func fastRetry() []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(&backoff.ConstantBackOff{Interval: time.Millisecond}),
		backoff.WithMaxTries(2),
	}
}

// syncFixture wires an executor, sync service and webhook ingestor over
// in-memory stores.
type syncFixture struct {
	configs  *mocks.MockIntegrationStore
	logs     *mocks.MockSyncLogStore
	assets   *mocks.MockAssetStore
	fetcher  *mocks.MockRecordFetcher
	notifier *mocks.MockNotifier
	lock     *mocks.MockDistributedLock

	executor *SyncExecutor
	syncs    *SyncService
	webhooks *WebhookIngestor
}

func newSyncFixture(t *testing.T, body string) *syncFixture {
	t.Helper()

	f := &syncFixture{
		configs:  mocks.NewMockIntegrationStore(),
		logs:     mocks.NewMockSyncLogStore(),
		assets:   mocks.NewMockAssetStore(),
		fetcher:  mocks.NewMockRecordFetcher(body),
		notifier: mocks.NewMockNotifier(),
		lock:     mocks.NewMockDistributedLock(),
	}
	logger := slog.Default()

	f.executor = NewSyncExecutor(SyncExecutorConfig{
		Fetcher:      f.fetcher,
		Logs:         f.logs,
		Assets:       f.assets,
		Logger:       logger,
		RetryOptFunc: fastRetry,
		Clock:        fixedClock,
	})
	f.syncs = NewSyncService(SyncServiceConfig{
		Configs:      f.configs,
		Logs:         f.logs,
		Executor:     f.executor,
		Notifier:     f.notifier,
		Lock:         f.lock,
		Logger:       logger,
		RetryOptFunc: fastRetry,
	})
	f.webhooks = NewWebhookIngestor(WebhookIngestorConfig{
		Configs:      f.configs,
		Executor:     f.executor,
		Lock:         f.lock,
		Logger:       logger,
		RetryOptFunc: fastRetry,
	})
	return f
}

// addConfig stores an ACTIVE REST_API configuration with the scenario mapping.
func (f *syncFixture) addConfig(t *testing.T, mutate func(cfg *domain.IntegrationConfig)) *domain.IntegrationConfig {
	t.Helper()
	cfg := &domain.IntegrationConfig{
		ID:                 "cfg-1",
		Name:               "cmdb",
		IntegrationType:    domain.IntegrationTypeRESTAPI,
		EndpointURL:        "http://cmdb.local/assets",
		AuthenticationType: domain.AuthenticationTypeAPIKey,
		Credentials:        domain.Credentials{APIKey: "secret"},
		FieldMapping: domain.FieldMapping{
			{External: "ext_id", Internal: "uniqueIdentifier"},
			{External: "ext_name", Internal: "assetDescription"},
		},
		ConflictStrategy: domain.ConflictStrategySkip,
		Status:           domain.IntegrationStatusActive,
		CreatedByID:      "user-1",
		CreatedAt:        testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := f.configs.Save(t.Context(), cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return cfg
}

func jobFor(id string) worker.Job {
	return worker.Job{IntegrationID: id, Source: domain.SyncSourceScheduled}
}
