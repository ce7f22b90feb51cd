package domain

// Role defines operator permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage integrations, trigger syncs
	RoleMember Role = "member" // Read integrations and sync history
)

// AuthContext contains authenticated operator info for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin checks if the authenticated operator is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ToAuthContext converts validated claims into a request auth context
func (c *TokenClaims) ToAuthContext() *AuthContext {
	return &AuthContext{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   c.Role,
	}
}
