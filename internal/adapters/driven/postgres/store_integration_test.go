//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

type StoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *DB

	configs *IntegrationStore
	logs    *SyncLogStore
	assets  *AssetStore
	notes   *NotificationStore
	lock    *AdvisoryLock
}

func TestStoreSuite(t *testing.T) {
	if os.Getenv("SKIP_INTEGRATION_TESTS") == "true" {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("asset_sync"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	s.Require().NoError(err, "Failed to start PostgreSQL container")
	s.container = container

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = Connect(ctx, Config{URL: url, MaxOpenConns: 4})
	s.Require().NoError(err)
	s.Require().NoError(s.db.InitSchema(ctx))
	// Idempotent
	s.Require().NoError(s.db.InitSchema(ctx))

	cipher, err := NewCredentialCipher(testKey)
	s.Require().NoError(err)

	s.configs = NewIntegrationStore(s.db, cipher)
	s.logs = NewSyncLogStore(s.db)
	s.assets = NewAssetStore(s.db)
	s.notes = NewNotificationStore(s.db)
	s.lock = NewAdvisoryLock(s.db)
}

func (s *StoreSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(),
		`TRUNCATE integration_configs, sync_logs, physical_assets, notifications CASCADE`)
	s.Require().NoError(err)
}

func (s *StoreSuite) newConfig(id, name string) *domain.IntegrationConfig {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.IntegrationConfig{
		ID:                 id,
		Name:               name,
		IntegrationType:    domain.IntegrationTypeRESTAPI,
		EndpointURL:        "https://cmdb.example.com/assets",
		AuthenticationType: domain.AuthenticationTypeBasicAuth,
		Credentials:        domain.Credentials{Username: "u", Password: "p"},
		FieldMapping: domain.FieldMapping{
			{External: "z_id", Internal: "uniqueIdentifier"},
			{External: "a_name", Internal: "assetDescription"},
		},
		SyncInterval:     "6h",
		ConflictStrategy: domain.ConflictStrategyMerge,
		Status:           domain.IntegrationStatusActive,
		CreatedByID:      "user-1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *StoreSuite) TestIntegrationStore_RoundTrip() {
	ctx := context.Background()
	cfg := s.newConfig("cfg-1", "cmdb")
	cfg.WebhookSecretHash = "$2a$hash"
	s.Require().NoError(s.configs.Save(ctx, cfg))

	var raw []byte
	s.Require().NoError(s.db.QueryRowContext(ctx,
		`SELECT credentials FROM integration_configs WHERE id = $1`, cfg.ID).Scan(&raw))
	s.NotContains(string(raw), `"password"`)

	got, err := s.configs.Get(ctx, cfg.ID)
	s.Require().NoError(err)
	s.Equal(cfg.Credentials, got.Credentials)
	s.Equal(cfg.FieldMapping, got.FieldMapping, "mapping order must survive storage")
	s.Equal(domain.ConflictStrategyMerge, got.ConflictStrategy)
	s.True(got.HasCredentials)
	s.True(got.HasWebhookSecret)

	byName, err := s.configs.GetByName(ctx, "cmdb")
	s.Require().NoError(err)
	s.Equal(cfg.ID, byName.ID)

	_, err = s.configs.Get(ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestIntegrationStore_DuplicateName() {
	ctx := context.Background()
	s.Require().NoError(s.configs.Save(ctx, s.newConfig("cfg-1", "cmdb")))
	s.ErrorIs(s.configs.Save(ctx, s.newConfig("cfg-2", "cmdb")), domain.ErrAlreadyExists)
}

func (s *StoreSuite) TestIntegrationStore_SaveKeepsSyncFields() {
	ctx := context.Background()
	cfg := s.newConfig("cfg-1", "cmdb")
	s.Require().NoError(s.configs.Save(ctx, cfg))

	at := time.Now().UTC().Truncate(time.Microsecond)
	msg := "boom"
	s.Require().NoError(s.configs.ApplyDelta(ctx, cfg.ID, domain.ConfigDelta{LastSyncAt: &at, LastSyncError: &msg}))

	// An admin save from a stale copy must not wipe what the run wrote.
	cfg.Description = "edited"
	s.Require().NoError(s.configs.Save(ctx, cfg))

	got, err := s.configs.Get(ctx, cfg.ID)
	s.Require().NoError(err)
	s.Equal("edited", got.Description)
	s.Equal("boom", got.LastSyncError)
	s.Require().NotNil(got.LastSyncAt)
	s.True(at.Equal(*got.LastSyncAt))
}

func (s *StoreSuite) TestIntegrationStore_ListDueAndApplyDelta() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	due := s.newConfig("due", "due")
	past := now.Add(-time.Minute)
	due.NextSyncAt = &past
	future := s.newConfig("future", "future")
	later := now.Add(time.Hour)
	future.NextSyncAt = &later
	inactive := s.newConfig("inactive", "inactive")
	inactive.Status = domain.IntegrationStatusInactive
	inactive.NextSyncAt = &past
	hook := s.newConfig("hook", "hook")
	hook.IntegrationType = domain.IntegrationTypeWebhook
	hook.NextSyncAt = &past
	for _, c := range []*domain.IntegrationConfig{due, future, inactive, hook} {
		s.Require().NoError(s.configs.Save(ctx, c))
	}

	list, err := s.configs.ListDue(ctx, now)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("due", list[0].ID)

	s.Require().NoError(s.configs.ApplyDelta(ctx, "due", domain.ConfigDelta{SetNextSyncAt: true}))
	got, _ := s.configs.Get(ctx, "due")
	s.Nil(got.NextSyncAt)

	s.ErrorIs(s.configs.ApplyDelta(ctx, "missing", domain.ConfigDelta{SetNextSyncAt: true}), domain.ErrNotFound)
}

func (s *StoreSuite) TestSyncLogStore_LifecycleAndCascade() {
	ctx := context.Background()
	s.Require().NoError(s.configs.Save(ctx, s.newConfig("cfg-1", "cmdb")))

	start := time.Now().UTC().Truncate(time.Microsecond)
	older := &domain.SyncLog{ID: "log-1", IntegrationConfigID: "cfg-1", Status: domain.SyncStatusRunning, StartedAt: start.Add(-time.Hour)}
	newer := &domain.SyncLog{ID: "log-2", IntegrationConfigID: "cfg-1", Status: domain.SyncStatusRunning, StartedAt: start}
	s.Require().NoError(s.logs.Create(ctx, older))
	s.Require().NoError(s.logs.Create(ctx, newer))
	s.ErrorIs(s.logs.Create(ctx, newer), domain.ErrAlreadyExists)

	newer.SyncDetails.AddRecordError(domain.RecordError{Index: 1, Identifier: "B2", Error: "bad"})
	newer.Complete(domain.SyncCounters{TotalRecords: 2, SuccessfulSyncs: 1, FailedSyncs: 1}, start.Add(time.Second))
	s.Require().NoError(s.logs.Update(ctx, newer))
	s.ErrorIs(s.logs.Update(ctx, newer), domain.ErrLogCompleted)

	got, err := s.logs.Get(ctx, "log-2")
	s.Require().NoError(err)
	s.Equal(domain.SyncStatusPartial, got.Status)
	s.Equal(1, got.FailedSyncs)
	s.Len(got.SyncDetails.RecordErrors, 1)
	s.NotNil(got.CompletedAt)

	history, err := s.logs.ListByIntegration(ctx, "cfg-1", 10)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("log-2", history[0].ID)

	s.Require().NoError(s.configs.Delete(ctx, "cfg-1"))
	_, err = s.logs.Get(ctx, "log-1")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestAssetStore() {
	ctx := context.Background()

	created, err := s.assets.Create(ctx, domain.Record{
		"uniqueIdentifier": "A1",
		"assetDescription": "Server A",
		"rack":             "R1",
	}, "user-1")
	s.Require().NoError(err)
	s.Equal("A1", created.UniqueIdentifier)
	s.NotContains(created.Fields, "uniqueIdentifier")

	_, err = s.assets.Create(ctx, domain.Record{"uniqueIdentifier": "A1"}, "user-1")
	s.ErrorIs(err, domain.ErrAlreadyExists)

	generated, err := s.assets.Create(ctx, domain.Record{"assetDescription": "anon"}, "user-1")
	s.Require().NoError(err)
	s.Regexp(`^AST-[0-9A-F]{8}$`, generated.UniqueIdentifier)

	updated, err := s.assets.Update(ctx, created.ID, domain.Record{"assetDescription": "Server A2"}, "user-2")
	s.Require().NoError(err)
	s.Equal("Server A2", updated.Fields["assetDescription"])
	s.Equal("R1", updated.Fields["rack"], "fields absent from the update are kept")
	s.Equal("user-2", updated.UpdatedBy)

	found, err := s.assets.FindByUniqueIdentifier(ctx, "A1")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)

	_, err = s.assets.FindByUniqueIdentifier(ctx, "nope")
	s.ErrorIs(err, domain.ErrNotFound)
	_, err = s.assets.Update(ctx, "nope", domain.Record{"x": 1}, "user-2")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestNotificationStore() {
	ctx := context.Background()
	n := &domain.Notification{
		UserID:   "user-1",
		Type:     domain.NotificationTypeSyncFailed,
		Priority: domain.NotificationPriorityHigh,
		Title:    "Integration sync failed",
		Message:  "cmdb: status 500",
	}
	s.Require().NoError(s.notes.Notify(ctx, n))
	s.NotEmpty(n.ID)

	list, err := s.notes.ListForUser(ctx, "user-1", 10)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(domain.NotificationPriorityHigh, list[0].Priority)
}

func (s *StoreSuite) TestAdvisoryLock() {
	ctx := context.Background()
	other := NewAdvisoryLock(s.db)

	ok, err := s.lock.Acquire(ctx, "integration-sync:cfg-1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.lock.Acquire(ctx, "integration-sync:cfg-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok, "same process must not re-enter")

	ok, err = other.Acquire(ctx, "integration-sync:cfg-1", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.lock.Release(ctx, "integration-sync:cfg-1"))
	ok, err = other.Acquire(ctx, "integration-sync:cfg-1", time.Minute)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().NoError(other.Release(ctx, "integration-sync:cfg-1"))

	s.NoError(s.lock.Release(ctx, "never-taken"))
	s.NoError(s.lock.Ping(ctx))
}
