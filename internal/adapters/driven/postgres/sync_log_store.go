package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SyncLogStore = (*SyncLogStore)(nil)

// SyncLogStore implements driven.SyncLogStore using PostgreSQL
type SyncLogStore struct {
	db *DB
}

// NewSyncLogStore creates a new SyncLogStore
func NewSyncLogStore(db *DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

const syncLogColumns = `
	id, integration_config_id, status, total_records, successful_syncs,
	failed_syncs, skipped_records, error_message, sync_details, started_at, completed_at`

// Create inserts a new sync log
func (s *SyncLogStore) Create(ctx context.Context, log *domain.SyncLog) error {
	details, err := json.Marshal(log.SyncDetails)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sync_logs (` + syncLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		log.ID,
		log.IntegrationConfigID,
		string(log.Status),
		log.TotalRecords,
		log.SuccessfulSyncs,
		log.FailedSyncs,
		log.SkippedRecords,
		log.ErrorMessage,
		details,
		log.StartedAt,
		nullTime(log.CompletedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: sync log %s", domain.ErrAlreadyExists, log.ID)
	}
	return err
}

// Update rewrites a log that has not completed yet. The stored row is locked
// so a concurrent completion cannot be overwritten.
func (s *SyncLogStore) Update(ctx context.Context, log *domain.SyncLog) error {
	details, err := json.Marshal(log.SyncDetails)
	if err != nil {
		return err
	}

	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		var completedAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT completed_at FROM sync_logs WHERE id = $1 FOR UPDATE`, log.ID,
		).Scan(&completedAt)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if completedAt.Valid {
			return domain.ErrLogCompleted
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE sync_logs SET
				status = $2,
				total_records = $3,
				successful_syncs = $4,
				failed_syncs = $5,
				skipped_records = $6,
				error_message = $7,
				sync_details = $8,
				completed_at = $9
			WHERE id = $1
		`,
			log.ID,
			string(log.Status),
			log.TotalRecords,
			log.SuccessfulSyncs,
			log.FailedSyncs,
			log.SkippedRecords,
			log.ErrorMessage,
			details,
			nullTime(log.CompletedAt),
		)
		return err
	})
}

// Get retrieves a sync log by ID
func (s *SyncLogStore) Get(ctx context.Context, id string) (*domain.SyncLog, error) {
	query := `SELECT ` + syncLogColumns + ` FROM sync_logs WHERE id = $1`
	return scanSyncLog(s.db.QueryRowContext(ctx, query, id))
}

// ListByIntegration returns the most recent logs for a configuration, newest first
func (s *SyncLogStore) ListByIntegration(ctx context.Context, integrationID string, limit int) ([]*domain.SyncLog, error) {
	query := `
		SELECT ` + syncLogColumns + `
		FROM sync_logs
		WHERE integration_config_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, integrationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.SyncLog
	for rows.Next() {
		log, err := scanSyncLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func scanSyncLog(row rowScanner) (*domain.SyncLog, error) {
	var log domain.SyncLog
	var details []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&log.ID,
		&log.IntegrationConfigID,
		&log.Status,
		&log.TotalRecords,
		&log.SuccessfulSyncs,
		&log.FailedSyncs,
		&log.SkippedRecords,
		&log.ErrorMessage,
		&details,
		&log.StartedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(details, &log.SyncDetails); err != nil {
		return nil, fmt.Errorf("sync log %s details: %w", log.ID, err)
	}
	log.CompletedAt = timePtr(completedAt)
	return &log, nil
}
