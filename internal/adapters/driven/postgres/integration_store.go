package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IntegrationStore = (*IntegrationStore)(nil)

// IntegrationStore implements driven.IntegrationStore using PostgreSQL.
// Credentials are sealed with the CredentialCipher before they are written.
type IntegrationStore struct {
	db     *DB
	cipher *CredentialCipher
}

// NewIntegrationStore creates a new IntegrationStore
func NewIntegrationStore(db *DB, cipher *CredentialCipher) *IntegrationStore {
	return &IntegrationStore{db: db, cipher: cipher}
}

const integrationColumns = `
	id, name, description, integration_type, endpoint_url, authentication_type,
	credentials, field_mapping, sync_interval, conflict_resolution_strategy, status,
	last_sync_at, next_sync_at, last_sync_error, webhook_secret_hash,
	created_by_id, created_at, updated_at`

// Save creates or updates a configuration. On update the sync-owned fields
// (last_sync_at, last_sync_error) are left to ApplyDelta.
func (s *IntegrationStore) Save(ctx context.Context, cfg *domain.IntegrationConfig) error {
	sealed, err := s.cipher.Seal(cfg.Credentials)
	if err != nil {
		return err
	}
	mapping, err := json.Marshal(cfg.FieldMapping)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO integration_configs (` + integrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			integration_type = EXCLUDED.integration_type,
			endpoint_url = EXCLUDED.endpoint_url,
			authentication_type = EXCLUDED.authentication_type,
			credentials = EXCLUDED.credentials,
			field_mapping = EXCLUDED.field_mapping,
			sync_interval = EXCLUDED.sync_interval,
			conflict_resolution_strategy = EXCLUDED.conflict_resolution_strategy,
			status = EXCLUDED.status,
			next_sync_at = EXCLUDED.next_sync_at,
			webhook_secret_hash = EXCLUDED.webhook_secret_hash,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.Name,
		cfg.Description,
		string(cfg.IntegrationType),
		cfg.EndpointURL,
		string(cfg.AuthenticationType),
		sealed,
		mapping,
		cfg.SyncInterval,
		string(cfg.ConflictStrategy),
		string(cfg.Status),
		nullTime(cfg.LastSyncAt),
		nullTime(cfg.NextSyncAt),
		cfg.LastSyncError,
		cfg.WebhookSecretHash,
		cfg.CreatedByID,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: integration named %q", domain.ErrAlreadyExists, cfg.Name)
	}
	return err
}

// Get retrieves a configuration by ID
func (s *IntegrationStore) Get(ctx context.Context, id string) (*domain.IntegrationConfig, error) {
	query := `SELECT ` + integrationColumns + ` FROM integration_configs WHERE id = $1`
	return s.scanConfig(s.db.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a configuration by name
func (s *IntegrationStore) GetByName(ctx context.Context, name string) (*domain.IntegrationConfig, error) {
	query := `SELECT ` + integrationColumns + ` FROM integration_configs WHERE name = $1`
	return s.scanConfig(s.db.QueryRowContext(ctx, query, name))
}

// List retrieves all configurations, newest first
func (s *IntegrationStore) List(ctx context.Context) ([]*domain.IntegrationConfig, error) {
	query := `SELECT ` + integrationColumns + ` FROM integration_configs ORDER BY created_at DESC`
	return s.queryConfigs(ctx, query)
}

// ListDue retrieves ACTIVE pull configurations whose next_sync_at has
// passed, oldest due first.
func (s *IntegrationStore) ListDue(ctx context.Context, now time.Time) ([]*domain.IntegrationConfig, error) {
	query := `
		SELECT ` + integrationColumns + `
		FROM integration_configs
		WHERE status = $1 AND next_sync_at IS NOT NULL AND next_sync_at <= $2
		  AND integration_type = ANY($3)
		ORDER BY next_sync_at ASC
	`
	types := make([]string, len(domain.PullIntegrationTypes))
	for i, t := range domain.PullIntegrationTypes {
		types[i] = string(t)
	}
	return s.queryConfigs(ctx, query, string(domain.IntegrationStatusActive), now, pq.Array(types))
}

// ApplyDelta writes only the fields a sync run owns.
func (s *IntegrationStore) ApplyDelta(ctx context.Context, id string, delta domain.ConfigDelta) error {
	if delta.IsEmpty() {
		return nil
	}

	var lastSyncError sql.NullString
	if delta.LastSyncError != nil {
		lastSyncError = sql.NullString{String: *delta.LastSyncError, Valid: true}
	}

	query := `
		UPDATE integration_configs SET
			last_sync_at = COALESCE($2, last_sync_at),
			last_sync_error = COALESCE($3, last_sync_error),
			next_sync_at = CASE WHEN $4 THEN $5 ELSE next_sync_at END
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		id,
		nullTime(delta.LastSyncAt),
		lastSyncError,
		delta.SetNextSyncAt,
		nullTime(delta.NextSyncAt),
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete hard-deletes a configuration. sync_logs rows go with it (ON DELETE CASCADE).
func (s *IntegrationStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM integration_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *IntegrationStore) queryConfigs(ctx context.Context, query string, args ...interface{}) ([]*domain.IntegrationConfig, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.IntegrationConfig
	for rows.Next() {
		cfg, err := s.scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *IntegrationStore) scanConfig(row rowScanner) (*domain.IntegrationConfig, error) {
	var cfg domain.IntegrationConfig
	var sealed, mapping []byte
	var lastSyncAt, nextSyncAt sql.NullTime

	err := row.Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.Description,
		&cfg.IntegrationType,
		&cfg.EndpointURL,
		&cfg.AuthenticationType,
		&sealed,
		&mapping,
		&cfg.SyncInterval,
		&cfg.ConflictStrategy,
		&cfg.Status,
		&lastSyncAt,
		&nextSyncAt,
		&cfg.LastSyncError,
		&cfg.WebhookSecretHash,
		&cfg.CreatedByID,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if cfg.Credentials, err = s.cipher.Open(sealed); err != nil {
		return nil, fmt.Errorf("integration %s credentials: %w", cfg.ID, err)
	}
	if err := json.Unmarshal(mapping, &cfg.FieldMapping); err != nil {
		return nil, fmt.Errorf("integration %s field mapping: %w", cfg.ID, err)
	}
	cfg.LastSyncAt = timePtr(lastSyncAt)
	cfg.NextSyncAt = timePtr(nextSyncAt)
	cfg.RefreshFlags()

	return &cfg, nil
}

// requireRow maps a zero-row write to domain.ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
