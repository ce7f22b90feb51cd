package domain

import (
	"fmt"
	"time"
)

// IntegrationStatus is the lifecycle state of an integration configuration.
type IntegrationStatus string

const (
	IntegrationStatusActive   IntegrationStatus = "ACTIVE"
	IntegrationStatusInactive IntegrationStatus = "INACTIVE"
	// IntegrationStatusError is accepted and stored but no sync path sets it.
	IntegrationStatusError IntegrationStatus = "ERROR"
)

// Valid reports whether s is a known status.
func (s IntegrationStatus) Valid() bool {
	switch s {
	case IntegrationStatusActive, IntegrationStatusInactive, IntegrationStatusError:
		return true
	}
	return false
}

// IntegrationType names the kind of external system behind a configuration.
type IntegrationType string

const (
	IntegrationTypeCMDB                  IntegrationType = "CMDB"
	IntegrationTypeAssetManagementSystem IntegrationType = "ASSET_MANAGEMENT_SYSTEM"
	IntegrationTypeRESTAPI               IntegrationType = "REST_API"
	IntegrationTypeWebhook               IntegrationType = "WEBHOOK"
)

// IntegrationKind is the behaviour attached to an IntegrationType.
// Every variant answers both questions, so a new type cannot be added
// without deciding how it syncs.
type IntegrationKind interface {
	// Pulls reports whether the engine fetches records from the endpoint.
	Pulls() bool
	// AcceptsPush reports whether inbound webhook payloads are accepted.
	AcceptsPush() bool
}

type cmdbKind struct{}
type assetManagementKind struct{}
type restAPIKind struct{}
type webhookKind struct{}

func (cmdbKind) Pulls() bool { return true }
func (cmdbKind) AcceptsPush() bool { return false }
func (assetManagementKind) Pulls() bool { return true }
func (assetManagementKind) AcceptsPush() bool { return true }
func (restAPIKind) Pulls() bool { return true }
func (restAPIKind) AcceptsPush() bool { return false }
func (webhookKind) Pulls() bool { return false }
func (webhookKind) AcceptsPush() bool { return true }

// PullIntegrationTypes lists the types the scheduler may pick up.
var PullIntegrationTypes = []IntegrationType{
	IntegrationTypeCMDB,
	IntegrationTypeAssetManagementSystem,
	IntegrationTypeRESTAPI,
}

// Kind resolves the integration type to its behaviour.
func (t IntegrationType) Kind() (IntegrationKind, error) {
	switch t {
	case IntegrationTypeCMDB:
		return cmdbKind{}, nil
	case IntegrationTypeAssetManagementSystem:
		return assetManagementKind{}, nil
	case IntegrationTypeRESTAPI:
		return restAPIKind{}, nil
	case IntegrationTypeWebhook:
		return webhookKind{}, nil
	}
	return nil, fmt.Errorf("%w: integration type %q", ErrInvalidInput, t)
}

// IntegrationConfig is one configured external source of asset records.
type IntegrationConfig struct {
	ID                 string                     `json:"id"`
	Name               string                     `json:"name"`
	Description        string                     `json:"description,omitempty"`
	IntegrationType    IntegrationType            `json:"integrationType"`
	EndpointURL        string                     `json:"endpointUrl,omitempty"`
	AuthenticationType AuthenticationType         `json:"authenticationType"`
	Credentials        Credentials                `json:"-"`
	FieldMapping       FieldMapping               `json:"fieldMapping"`
	SyncInterval       string                     `json:"syncInterval,omitempty"`
	ConflictStrategy   ConflictResolutionStrategy `json:"conflictResolutionStrategy"`
	Status             IntegrationStatus          `json:"status"`
	LastSyncAt         *time.Time                 `json:"lastSyncAt,omitempty"`
	NextSyncAt         *time.Time                 `json:"nextSyncAt,omitempty"`
	LastSyncError      string                     `json:"lastSyncError,omitempty"`
	WebhookSecretHash  string                     `json:"-"`
	CreatedByID        string                     `json:"createdById"`
	CreatedAt          time.Time                  `json:"createdAt"`
	UpdatedAt          time.Time                  `json:"updatedAt"`

	// HasCredentials and HasWebhookSecret are read-only views for API responses.
	HasCredentials   bool `json:"hasCredentials"`
	HasWebhookSecret bool `json:"hasWebhookSecret"`
}

// Credentials holds the secrets consulted by the auth header builder.
// Only the subset relevant to the authentication type is used.
type Credentials struct {
	APIKey      string `json:"apiKey,omitempty"`
	BearerToken string `json:"bearerToken,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
}

// IsZero reports whether no credential field is set.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// IsActive reports whether the configuration is eligible for sync.
func (c *IntegrationConfig) IsActive() bool {
	return c.Status == IntegrationStatusActive
}

// Pulls reports whether the configuration is fetched from its endpoint.
// Unknown types never pull.
func (c *IntegrationConfig) Pulls() bool {
	kind, err := c.IntegrationType.Kind()
	return err == nil && kind.Pulls()
}

// Strategy returns the configured conflict strategy, defaulting to SKIP.
func (c *IntegrationConfig) Strategy() ConflictStrategy {
	s, err := c.ConflictStrategy.Strategy()
	if err != nil {
		return skipStrategy{}
	}
	return s
}

// Snapshot returns a copy safe to hand to a sync run.
func (c *IntegrationConfig) Snapshot() IntegrationConfig {
	cp := *c
	cp.FieldMapping = append(FieldMapping(nil), c.FieldMapping...)
	return cp
}

// RefreshFlags recomputes the read-only presence flags.
func (c *IntegrationConfig) RefreshFlags() {
	c.HasCredentials = !c.Credentials.IsZero()
	c.HasWebhookSecret = c.WebhookSecretHash != ""
}

// ConfigDelta is the scheduling/observability change produced by a sync run.
// Nil pointers leave the corresponding field unchanged. SetNextSyncAt applies
// NextSyncAt even when it is nil, which clears the schedule.
type ConfigDelta struct {
	LastSyncAt    *time.Time `json:"lastSyncAt,omitempty"`
	LastSyncError *string    `json:"lastSyncError,omitempty"`
	SetNextSyncAt bool       `json:"setNextSyncAt"`
	NextSyncAt    *time.Time `json:"nextSyncAt,omitempty"`
}

// IsEmpty reports whether applying the delta changes nothing.
func (d ConfigDelta) IsEmpty() bool {
	return d.LastSyncAt == nil && d.LastSyncError == nil && !d.SetNextSyncAt
}

// Apply writes the delta onto cfg.
func (d ConfigDelta) Apply(cfg *IntegrationConfig) {
	if d.LastSyncAt != nil {
		t := *d.LastSyncAt
		cfg.LastSyncAt = &t
	}
	if d.LastSyncError != nil {
		cfg.LastSyncError = *d.LastSyncError
	}
	if d.SetNextSyncAt {
		if d.NextSyncAt == nil {
			cfg.NextSyncAt = nil
		} else {
			t := *d.NextSyncAt
			cfg.NextSyncAt = &t
		}
	}
}
