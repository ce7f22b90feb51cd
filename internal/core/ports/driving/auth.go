package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

// AuthService validates operator bearer tokens. User accounts and sessions
// live outside this service; tokens are minted by the operator CLI.
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken signs a token for an operator identity
	IssueToken(ctx context.Context, userID, email string, role domain.Role, ttl time.Duration) (string, error)
}
