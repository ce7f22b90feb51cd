package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"BEARER   padded   ", "padded"},
		{"", ""},
		{"abc123", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"Token abc123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestGetAuthContext(t *testing.T) {
	if got := GetAuthContext(context.Background()); got != nil {
		t.Errorf("expected nil without auth, got %+v", got)
	}

	want := &domain.AuthContext{UserID: "op-7", Email: "ops@example.com", Role: domain.RoleMember}
	ctx := context.WithValue(context.Background(), authContextKey, want)
	if got := GetAuthContext(ctx); got != want {
		t.Errorf("expected stored auth context, got %+v", got)
	}

	ctx = context.WithValue(context.Background(), authContextKey, "not an auth context")
	if got := GetAuthContext(ctx); got != nil {
		t.Errorf("expected nil for foreign value, got %+v", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	auth := tokenAuth()
	base := auth.validateTokenFn
	auth.validateTokenFn = func(ctx context.Context, token string) (*domain.AuthContext, error) {
		switch token {
		case "stale":
			return nil, domain.ErrTokenExpired
		case "garbled":
			return nil, errors.New("signature mismatch")
		}
		return base(ctx, token)
	}
	middleware := NewAuthMiddleware(auth)

	var seen *domain.AuthContext
	record := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name    string
		chain   http.Handler
		token   string
		want    int
		message string
	}{
		{"member reads", middleware.Authenticate(record), memberToken, http.StatusOK, ""},
		{"missing token", middleware.Authenticate(record), "", http.StatusUnauthorized, "missing authorization token"},
		{"expired token", middleware.Authenticate(record), "stale", http.StatusUnauthorized, "token expired"},
		{"bad signature", middleware.Authenticate(record), "garbled", http.StatusUnauthorized, "invalid token"},
		{"admin writes", middleware.Authenticate(middleware.RequireAdmin(record)), adminToken, http.StatusOK, ""},
		{"member cannot write", middleware.Authenticate(middleware.RequireAdmin(record)), memberToken, http.StatusForbidden, "admin access required"},
		{"admin check without authentication", middleware.RequireAdmin(record), adminToken, http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			tt.chain.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rr.Code)
			}
			if tt.message != "" {
				if got := decodeError(t, rr); got != tt.message {
					t.Errorf("expected error %q, got %q", tt.message, got)
				}
				if seen != nil {
					t.Error("handler should not run on rejected requests")
				}
				return
			}
			if seen == nil {
				t.Fatal("expected auth context in handler")
			}
		})
	}
}

func TestWebhookAuthMiddleware(t *testing.T) {
	integrations := &mockIntegrationService{
		verifySecretFn: func(ctx context.Context, id, secret string) (bool, error) {
			switch id {
			case "gone":
				return false, domain.ErrNotFound
			case "broken":
				return false, errors.New("db down")
			}
			return secret == "correct-horse-battery", nil
		},
	}
	middleware := NewWebhookAuthMiddleware(tokenAuth(), integrations)

	mux := http.NewServeMux()
	mux.Handle("POST /hooks/{id}", middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	tests := []struct {
		name   string
		id     string
		secret string
		token  string
		want   int
	}{
		{"valid secret", "hook-1", "correct-horse-battery", "", http.StatusAccepted},
		{"wrong secret", "hook-1", "nope", "", http.StatusUnauthorized},
		{"secret wins over token", "hook-1", "nope", adminToken, http.StatusUnauthorized},
		{"unknown integration", "gone", "correct-horse-battery", "", http.StatusNotFound},
		{"verify error", "broken", "correct-horse-battery", "", http.StatusInternalServerError},
		{"admin token", "hook-1", "", adminToken, http.StatusAccepted},
		{"member token", "hook-1", "", memberToken, http.StatusForbidden},
		{"no credentials", "hook-1", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hooks/"+tt.id, nil)
			if tt.secret != "" {
				req.Header.Set(WebhookSecretHeader, tt.secret)
			}
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			mux.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	middleware := NewLoggingMiddleware(slog.New(slog.NewJSONHandler(&buf, nil)))

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "integration not found")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/integrations/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	for _, want := range []string{`"msg":"http request"`, `"method":"GET"`, `"path":"/api/v1/integrations/missing"`, `"status":404`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected log to contain %s, got %s", want, buf.String())
		}
	}
}

func TestLoggingMiddleware_DefaultsToOK(t *testing.T) {
	var buf bytes.Buffer
	middleware := NewLoggingMiddleware(slog.New(slog.NewJSONHandler(&buf, nil)))

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("expected implicit 200 to be logged, got %s", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	middleware := NewRecoveryMiddleware(slog.New(slog.NewJSONHandler(&buf, nil)))

	handler := middleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("mapping table corrupted")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/integrations/int-1/sync", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != "internal server error" {
		t.Errorf("expected generic message, got %q", got)
	}
	if !strings.Contains(buf.String(), "mapping table corrupted") {
		t.Errorf("expected panic value to be logged, got %s", buf.String())
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantAllowed bool
	}{
		{"listed origin", []string{"https://ops.example.com"}, http.MethodGet, "https://ops.example.com", http.StatusOK, true},
		{"wildcard", []string{"*"}, http.MethodGet, "https://anything.example.com", http.StatusOK, true},
		{"unlisted origin", []string{"https://ops.example.com"}, http.MethodGet, "https://evil.example.com", http.StatusOK, false},
		{"preflight", []string{"https://ops.example.com"}, http.MethodOptions, "https://ops.example.com", http.StatusNoContent, true},
		{"preflight from unlisted origin", []string{"https://ops.example.com"}, http.MethodOptions, "https://evil.example.com", http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/integrations", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()

			NewCORSMiddleware(tt.allowed).Handler(next).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed {
				if got != tt.origin {
					t.Errorf("expected allowed origin %q, got %q", tt.origin, got)
				}
				if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), WebhookSecretHeader) {
					t.Errorf("expected %s in allowed headers", WebhookSecretHeader)
				}
			} else if got != "" {
				t.Errorf("expected no CORS header, got %q", got)
			}
		})
	}
}
