package driven

import (
	"context"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// Notifier delivers operator notifications
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}
