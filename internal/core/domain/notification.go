package domain

import "time"

// NotificationPriority ranks operator notifications
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

// NotificationTypeSyncFailed is sent when a pull sync fails at run level
const NotificationTypeSyncFailed = "integration_sync_failed"

// Notification is an operator alert
type Notification struct {
	ID         string               `json:"id"`
	UserID     string               `json:"userId"`
	Type       string               `json:"type"`
	Priority   NotificationPriority `json:"priority"`
	Title      string               `json:"title"`
	Message    string               `json:"message"`
	EntityType string               `json:"entityType,omitempty"`
	EntityID   string               `json:"entityId,omitempty"`
	ActionURL  string               `json:"actionUrl,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}
