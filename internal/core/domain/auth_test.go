package domain

import "testing"

func TestAuthContextIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleMember, false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{Role: tt.role}
			if ctx.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.expected, tt.role)
			}
		})
	}
}

func TestTokenClaimsToAuthContext(t *testing.T) {
	claims := &TokenClaims{UserID: "user-1", Email: "ops@example.com", Role: RoleAdmin}
	ctx := claims.ToAuthContext()
	if ctx.UserID != "user-1" || ctx.Email != "ops@example.com" || !ctx.IsAdmin() {
		t.Errorf("unexpected auth context %+v", ctx)
	}
}
