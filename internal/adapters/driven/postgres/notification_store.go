package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Notifier = (*NotificationStore)(nil)

// NotificationStore delivers operator notifications by writing them to the
// notifications table, where the platform's notification feed picks them up.
type NotificationStore struct {
	db *DB
}

// NewNotificationStore creates a new NotificationStore
func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Notify persists a notification, filling in ID and CreatedAt when unset.
func (s *NotificationStore) Notify(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (id, user_id, type, priority, title, message, entity_type, entity_id, action_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		string(n.Priority),
		n.Title,
		n.Message,
		n.EntityType,
		n.EntityID,
		n.ActionURL,
		n.CreatedAt,
	)
	return err
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, type, priority, title, message, entity_type, entity_id, action_url, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Priority, &n.Title, &n.Message,
			&n.EntityType, &n.EntityID, &n.ActionURL, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
