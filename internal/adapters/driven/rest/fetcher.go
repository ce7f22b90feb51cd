package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordFetcher = (*Fetcher)(nil)

// errBodyTooLarge is wrapped in a TransportError when a response exceeds MaxBodyBytes.
var errBodyTooLarge = errors.New("response body too large")

// Fetcher implements driven.RecordFetcher over net/http. Each endpoint host
// gets its own circuit breaker so a dead CMDB stops being hammered by
// scheduled runs until it recovers.
type Fetcher struct {
	httpClient   *http.Client
	maxBodyBytes int64
	breaker      BreakerConfig
	logger       *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// BreakerConfig tunes the per-host circuit breaker
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker (0 disables breaking)
	ConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before a trial request
	OpenTimeout time.Duration

	// HalfOpenRequests is how many trial requests are let through half-open
	HalfOpenRequests uint32
}

// Config holds fetcher configuration
type Config struct {
	// Timeout for each HTTP request
	Timeout time.Duration

	// MaxBodyBytes caps the response body read into memory
	MaxBodyBytes int64

	Breaker BreakerConfig
	Logger  *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxBodyBytes: 32 << 20,
		Breaker: BreakerConfig{
			ConsecutiveFailures: 5,
			OpenTimeout:         time.Minute,
			HalfOpenRequests:    1,
		},
	}
}

// NewFetcher creates a new Fetcher
func NewFetcher(cfg Config) *Fetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	return &Fetcher{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxBodyBytes: cfg.MaxBodyBytes,
		breaker:      cfg.Breaker,
		logger:       logger,
		breakers:     make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Fetch issues a GET and returns the body of a 2xx response
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	return f.do(ctx, rawURL, headers, true)
}

// Probe issues a GET and discards the body
func (f *Fetcher) Probe(ctx context.Context, rawURL string, headers map[string]string) error {
	_, err := f.do(ctx, rawURL, headers, false)
	return err
}

func (f *Fetcher) do(ctx context.Context, rawURL string, headers map[string]string, keepBody bool) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &domain.TransportError{URL: rawURL, Err: fmt.Errorf("invalid endpoint url")}
	}

	cb := f.breakerFor(u.Host)
	if cb == nil {
		return f.get(ctx, rawURL, headers, keepBody)
	}

	out, err := cb.Execute(func() (interface{}, error) {
		return f.get(ctx, rawURL, headers, keepBody)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.TransportError{URL: rawURL, Err: err}
	}
	if err != nil {
		return nil, err
	}
	body, _ := out.([]byte)
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, headers map[string]string, keepBody bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if !keepBody {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, &domain.TransportError{URL: rawURL, Err: err}
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &domain.TransportError{URL: rawURL, Err: fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, f.maxBodyBytes)}
	}
	return body, nil
}

// breakerFor returns the breaker for a host, or nil when breaking is disabled.
func (f *Fetcher) breakerFor(host string) *gobreaker.CircuitBreaker {
	if f.breaker.ConsecutiveFailures == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[host]; ok {
		return cb
	}

	threshold := f.breaker.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: f.breaker.HalfOpenRequests,
		Timeout:     f.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("endpoint circuit breaker state changed",
				"host", name, "from", from.String(), "to", to.String())
		},
	})
	f.breakers[host] = cb
	return cb
}

// countsAsHealthy keeps 4xx responses from tripping the breaker: they point
// at configuration (credentials, path), not at an unavailable endpoint.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500 {
		return true
	}
	return false
}
