package driving

import (
	"context"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// CreateIntegrationRequest represents a request to create an integration configuration
type CreateIntegrationRequest struct {
	Name                       string                            `json:"name" validate:"required,max=255"`
	Description                string                            `json:"description,omitempty" validate:"max=2000"`
	IntegrationType            domain.IntegrationType            `json:"integrationType" validate:"required,oneof=CMDB ASSET_MANAGEMENT_SYSTEM REST_API WEBHOOK"`
	EndpointURL                string                            `json:"endpointUrl,omitempty" validate:"omitempty,url"`
	AuthenticationType         domain.AuthenticationType         `json:"authenticationType" validate:"required,oneof=API_KEY BEARER_TOKEN BASIC_AUTH OAUTH2"`
	Credentials                domain.Credentials                `json:"credentials"`
	FieldMapping               domain.FieldMapping               `json:"fieldMapping"`
	SyncInterval               string                            `json:"syncInterval,omitempty" validate:"omitempty,sync_interval"`
	ConflictResolutionStrategy domain.ConflictResolutionStrategy `json:"conflictResolutionStrategy,omitempty" validate:"omitempty,oneof=SKIP OVERWRITE MERGE"`
	WebhookSecret              string                            `json:"webhookSecret,omitempty" validate:"omitempty,min=16,max=72"`
}

// UpdateIntegrationRequest is a partial update; nil fields are left unchanged
type UpdateIntegrationRequest struct {
	Name                       *string                            `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description                *string                            `json:"description,omitempty" validate:"omitempty,max=2000"`
	IntegrationType            *domain.IntegrationType            `json:"integrationType,omitempty" validate:"omitempty,oneof=CMDB ASSET_MANAGEMENT_SYSTEM REST_API WEBHOOK"`
	EndpointURL                *string                            `json:"endpointUrl,omitempty" validate:"omitempty,url"`
	AuthenticationType         *domain.AuthenticationType         `json:"authenticationType,omitempty" validate:"omitempty,oneof=API_KEY BEARER_TOKEN BASIC_AUTH OAUTH2"`
	Credentials                *domain.Credentials                `json:"credentials,omitempty"`
	FieldMapping               *domain.FieldMapping               `json:"fieldMapping,omitempty"`
	SyncInterval               *string                            `json:"syncInterval,omitempty" validate:"omitempty,sync_interval"`
	ConflictResolutionStrategy *domain.ConflictResolutionStrategy `json:"conflictResolutionStrategy,omitempty" validate:"omitempty,oneof=SKIP OVERWRITE MERGE"`
	Status                     *domain.IntegrationStatus          `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE ERROR"`
	WebhookSecret              *string                            `json:"webhookSecret,omitempty" validate:"omitempty,min=16,max=72"`
}

// TestConnectionResult is the outcome of probing an integration endpoint
type TestConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IntegrationService manages integration configurations (admin operations)
type IntegrationService interface {
	// Create creates a new configuration in INACTIVE status
	Create(ctx context.Context, creatorID string, req CreateIntegrationRequest) (*domain.IntegrationConfig, error)

	// Get retrieves a configuration by ID
	Get(ctx context.Context, id string) (*domain.IntegrationConfig, error)

	// List retrieves all configurations
	List(ctx context.Context) ([]*domain.IntegrationConfig, error)

	// Update applies a partial update
	Update(ctx context.Context, id string, req UpdateIntegrationRequest) (*domain.IntegrationConfig, error)

	// Delete hard-deletes a configuration and its sync history
	Delete(ctx context.Context, id string) error

	// TestConnection builds auth headers and probes the endpoint. Never writes a sync log.
	TestConnection(ctx context.Context, id string) (*TestConnectionResult, error)

	// VerifyWebhookSecret checks an inbound shared secret against the stored hash
	VerifyWebhookSecret(ctx context.Context, id, secret string) (bool, error)
}
