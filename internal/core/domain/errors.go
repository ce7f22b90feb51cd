package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrSyncInProgress indicates a sync is already running for the integration
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrIntegrationInactive indicates a sync was requested for a non-ACTIVE integration
	ErrIntegrationInactive = errors.New("integration is not active")

	// ErrInvalidIntegrationType indicates the operation is not supported for the integration type
	ErrInvalidIntegrationType = errors.New("operation not supported for integration type")

	// ErrOAuth2NotImplemented indicates OAUTH2 token acquisition is not available,
	// so requests are sent without credentials.
	ErrOAuth2NotImplemented = errors.New("oauth2 token acquisition not implemented")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrLogCompleted indicates an attempt to modify a sync log that already completed
	ErrLogCompleted = errors.New("sync log already completed")
)

// TransportError wraps a failure talking to an external system: network errors,
// timeouts, non-2xx responses and undecodable bodies.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
