package driven

import "context"

// RecordFetcher talks to external systems over HTTP.
// All failures are returned as *domain.TransportError.
type RecordFetcher interface {
	// Fetch issues a GET and returns the response body of a 2xx response
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)

	// Probe issues a bare GET and discards the body. Used for connection tests.
	Probe(ctx context.Context, url string, headers map[string]string) error
}
