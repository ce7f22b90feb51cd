package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

var _ driven.RecordFetcher = (*MockRecordFetcher)(nil)

// FetchCall captures the arguments of one Fetch or Probe call
type FetchCall struct {
	URL     string
	Headers map[string]string
}

// MockRecordFetcher returns a canned body, or delegates to FetchFn/ProbeFn
type MockRecordFetcher struct {
	mu    sync.Mutex
	calls []FetchCall

	Body    []byte
	FetchFn func(url string, headers map[string]string) ([]byte, error)
	ProbeFn func(url string, headers map[string]string) error
}

// NewMockRecordFetcher creates a fetcher that returns body on every call
func NewMockRecordFetcher(body string) *MockRecordFetcher {
	return &MockRecordFetcher{Body: []byte(body)}
}

func (m *MockRecordFetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	m.record(url, headers)
	if m.FetchFn != nil {
		return m.FetchFn(url, headers)
	}
	return m.Body, nil
}

func (m *MockRecordFetcher) Probe(ctx context.Context, url string, headers map[string]string) error {
	m.record(url, headers)
	if m.ProbeFn != nil {
		return m.ProbeFn(url, headers)
	}
	return nil
}

// Calls returns the recorded calls
func (m *MockRecordFetcher) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

func (m *MockRecordFetcher) record(url string, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, FetchCall{URL: url, Headers: headers})
}
