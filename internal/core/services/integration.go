package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driving"
)

// Ensure integrationService implements IntegrationService
var _ driving.IntegrationService = (*integrationService)(nil)

// integrationService implements the IntegrationService interface
type integrationService struct {
	configs  driven.IntegrationStore
	fetcher  driven.RecordFetcher
	auth     driven.AuthAdapter
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	probeTimeout time.Duration
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(
	configs driven.IntegrationStore,
	fetcher driven.RecordFetcher,
	auth driven.AuthAdapter,
	logger *slog.Logger,
) driving.IntegrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &integrationService{
		configs:      configs,
		fetcher:      fetcher,
		auth:         auth,
		validate:     newValidator(),
		logger:       logger,
		now:          time.Now,
		probeTimeout: DefaultFetchTimeout,
	}
}

// Create creates a new configuration. New configurations start INACTIVE.
func (s *integrationService) Create(ctx context.Context, creatorID string, req driving.CreateIntegrationRequest) (*domain.IntegrationConfig, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if err := req.FieldMapping.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.configs.GetByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: integration named %q", domain.ErrAlreadyExists, req.Name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	strategy := req.ConflictResolutionStrategy
	if strategy == "" {
		strategy = domain.ConflictStrategySkip
	}

	now := s.now()
	cfg := &domain.IntegrationConfig{
		ID:                 uuid.NewString(),
		Name:               req.Name,
		Description:        req.Description,
		IntegrationType:    req.IntegrationType,
		EndpointURL:        req.EndpointURL,
		AuthenticationType: req.AuthenticationType,
		Credentials:        req.Credentials,
		FieldMapping:       req.FieldMapping,
		SyncInterval:       req.SyncInterval,
		ConflictStrategy:   strategy,
		Status:             domain.IntegrationStatusInactive,
		CreatedByID:        creatorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := checkEndpoint(cfg); err != nil {
		return nil, err
	}
	if req.WebhookSecret != "" {
		hash, err := s.auth.HashSecret(req.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("hash webhook secret: %w", err)
		}
		cfg.WebhookSecretHash = hash
	}
	cfg.RefreshFlags()

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("integration created",
		"integration_id", cfg.ID,
		"name", cfg.Name,
		"type", cfg.IntegrationType,
	)
	return cfg, nil
}

// Get retrieves a configuration by ID
func (s *integrationService) Get(ctx context.Context, id string) (*domain.IntegrationConfig, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg.RefreshFlags()
	return cfg, nil
}

// List retrieves all configurations
func (s *integrationService) List(ctx context.Context) ([]*domain.IntegrationConfig, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		cfg.RefreshFlags()
	}
	return configs, nil
}

// Update applies a partial update.
//
// Scheduling is seeded here and owned by sync runs afterwards: activating a
// configuration with an interval makes it due immediately, changing the
// interval of an active configuration reschedules it, and clearing the
// interval unschedules it. Types that do not pull are never scheduled.
func (s *integrationService) Update(ctx context.Context, id string, req driving.UpdateIntegrationRequest) (*domain.IntegrationConfig, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldInterval := cfg.SyncInterval

	if req.Name != nil && *req.Name != cfg.Name {
		if existing, err := s.configs.GetByName(ctx, *req.Name); err == nil && existing.ID != id {
			return nil, fmt.Errorf("%w: integration named %q", domain.ErrAlreadyExists, *req.Name)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		cfg.Name = *req.Name
	}
	if req.Description != nil {
		cfg.Description = *req.Description
	}
	if req.IntegrationType != nil {
		cfg.IntegrationType = *req.IntegrationType
	}
	if req.EndpointURL != nil {
		cfg.EndpointURL = *req.EndpointURL
	}
	if req.AuthenticationType != nil {
		cfg.AuthenticationType = *req.AuthenticationType
	}
	if req.Credentials != nil {
		cfg.Credentials = *req.Credentials
	}
	if req.FieldMapping != nil {
		if err := req.FieldMapping.Validate(); err != nil {
			return nil, err
		}
		cfg.FieldMapping = *req.FieldMapping
	}
	if req.SyncInterval != nil {
		cfg.SyncInterval = *req.SyncInterval
	}
	if req.ConflictResolutionStrategy != nil {
		cfg.ConflictStrategy = *req.ConflictResolutionStrategy
	}
	if req.Status != nil {
		cfg.Status = *req.Status
	}
	if req.WebhookSecret != nil {
		if *req.WebhookSecret == "" {
			cfg.WebhookSecretHash = ""
		} else {
			hash, err := s.auth.HashSecret(*req.WebhookSecret)
			if err != nil {
				return nil, fmt.Errorf("hash webhook secret: %w", err)
			}
			cfg.WebhookSecretHash = hash
		}
	}

	if err := checkEndpoint(cfg); err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case cfg.SyncInterval == "" || !cfg.Pulls():
		cfg.NextSyncAt = nil
	case cfg.IsActive() && cfg.NextSyncAt == nil:
		cfg.NextSyncAt = &now
	case cfg.IsActive() && cfg.SyncInterval != oldInterval:
		next := domain.NextSyncFrom(cfg.SyncInterval, now)
		cfg.NextSyncAt = &next
	}

	cfg.UpdatedAt = now
	cfg.RefreshFlags()

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("integration updated", "integration_id", cfg.ID, "status", cfg.Status)
	return cfg, nil
}

// Delete hard-deletes a configuration and its sync history
func (s *integrationService) Delete(ctx context.Context, id string) error {
	if err := s.configs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("integration deleted", "integration_id", id)
	return nil
}

// TestConnection probes the configured endpoint with the configured auth headers.
// Probe failures are reported in the result, not as errors.
func (s *integrationService) TestConnection(ctx context.Context, id string) (*driving.TestConnectionResult, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cfg.EndpointURL == "" {
		return &driving.TestConnectionResult{
			Success: false,
			Message: fmt.Sprintf("%s integration has no endpoint to test", cfg.IntegrationType),
		}, nil
	}

	headers, err := domain.BuildAuthHeaders(cfg.AuthenticationType, cfg.Credentials)
	note := ""
	if errors.Is(err, domain.ErrOAuth2NotImplemented) {
		note = " (OAUTH2 credentials were not sent: token acquisition is not available)"
	} else if err != nil {
		return &driving.TestConnectionResult{Success: false, Message: err.Error()}, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	if err := s.fetcher.Probe(probeCtx, cfg.EndpointURL, headers); err != nil {
		s.logger.Info("integration connection test failed", "integration_id", id, "error", err)
		return &driving.TestConnectionResult{Success: false, Message: err.Error() + note}, nil
	}
	return &driving.TestConnectionResult{Success: true, Message: "Connection successful" + note}, nil
}

// VerifyWebhookSecret checks an inbound shared secret. Configurations
// without a secret never verify.
func (s *integrationService) VerifyWebhookSecret(ctx context.Context, id, secret string) (bool, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if cfg.WebhookSecretHash == "" || secret == "" {
		return false, nil
	}
	return s.auth.VerifySecret(secret, cfg.WebhookSecretHash), nil
}

// checkEndpoint requires an endpoint on every type that pulls.
func checkEndpoint(cfg *domain.IntegrationConfig) error {
	kind, err := cfg.IntegrationType.Kind()
	if err != nil {
		return err
	}
	if kind.Pulls() && cfg.EndpointURL == "" {
		return fmt.Errorf("%w: endpointUrl is required for %s integrations", domain.ErrInvalidInput, cfg.IntegrationType)
	}
	return nil
}
