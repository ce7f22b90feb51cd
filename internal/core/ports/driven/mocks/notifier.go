package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

var _ driven.Notifier = (*MockNotifier)(nil)

// MockNotifier records every notification it is asked to send
type MockNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification

	NotifyFn func(n *domain.Notification) error
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	if m.NotifyFn != nil {
		if err := m.NotifyFn(n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.sent = append(m.sent, &cp)
	return nil
}

// Sent returns the notifications recorded so far
func (m *MockNotifier) Sent() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.sent...)
}
