package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven/mocks"
)

func newTestAuthService() (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(authAdapter).(*authService)
	return authAdapter, svc
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	_, svc := newTestAuthService()
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, "user-1", "ops@example.com", domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authCtx, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", authCtx.UserID)
	}
	if authCtx.Email != "ops@example.com" {
		t.Errorf("expected ops@example.com, got %s", authCtx.Email)
	}
	if !authCtx.IsAdmin() {
		t.Error("expected admin role")
	}
}

func TestAuthService_IssueToken_InvalidInput(t *testing.T) {
	_, svc := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		role   domain.Role
		ttl    time.Duration
	}{
		{"empty user", "", domain.RoleAdmin, time.Hour},
		{"unknown role", "user-1", domain.Role("root"), time.Hour},
		{"zero ttl", "user-1", domain.RoleMember, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(ctx, tt.userID, "", tt.role, tt.ttl)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	authAdapter, svc := newTestAuthService()
	ctx := context.Background()

	expired, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		UserID:    "user-1",
		Role:      domain.RoleMember,
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", domain.ErrTokenInvalid},
		{"garbage token", "not-base64!!", domain.ErrTokenInvalid},
		{"expired token", expired, domain.ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(ctx, tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
