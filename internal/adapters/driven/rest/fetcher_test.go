package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

func TestFetcher_FetchSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"ext_id":"A1"}]`))
	}))
	defer srv.Close()

	f := NewFetcher(DefaultConfig())
	body, err := f.Fetch(context.Background(), srv.URL, map[string]string{"X-API-Key": "secret"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ext_id":"A1"}]`, string(body))
}

func TestFetcher_Non2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(DefaultConfig())
	_, err := f.Fetch(context.Background(), srv.URL, nil)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, err.Error(), "500")
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	f := NewFetcher(cfg)

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	assert.True(t, domain.IsTransportError(err))
}

func TestFetcher_InvalidURL(t *testing.T) {
	f := NewFetcher(DefaultConfig())
	for _, u := range []string{"", "ftp://host/x", "not a url", "http://"} {
		_, err := f.Fetch(context.Background(), u, nil)
		assert.True(t, domain.IsTransportError(err), "url %q", u)
	}
}

func TestFetcher_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 10
	f := NewFetcher(cfg)

	_, err := f.Fetch(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, errBodyTooLarge)
	assert.True(t, domain.IsTransportError(err))
}

func TestFetcher_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher(DefaultConfig())
	assert.NoError(t, f.Probe(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer tok"}))

	err := f.Probe(context.Background(), srv.URL, nil)
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
}

func TestFetcher_CircuitBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Breaker = BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Hour, HalfOpenRequests: 1}
	f := NewFetcher(cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(ctx, srv.URL, nil)
		require.Error(t, err)
	}

	_, err := f.Fetch(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, domain.IsTransportError(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "open breaker must not reach the endpoint")
}

func TestFetcher_ClientErrorsDoNotTrip(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Breaker = BreakerConfig{ConsecutiveFailures: 1, OpenTimeout: time.Hour, HalfOpenRequests: 1}
	f := NewFetcher(cfg)

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestFetcher_BreakerDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Breaker.ConsecutiveFailures = 0
	f := NewFetcher(cfg)
	assert.Nil(t, f.breakerFor("example.com"))
}
