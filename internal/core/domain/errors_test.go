package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTransportError(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")

	err := fmt.Errorf("sync: %w", &TransportError{URL: "http://cmdb", Err: inner})
	if !IsTransportError(err) {
		t.Error("expected wrapped transport error to be detected")
	}
	if !errors.Is(err, inner) {
		t.Error("expected transport error to unwrap to inner error")
	}

	status := &TransportError{URL: "http://cmdb", StatusCode: 500}
	if status.Error() != "fetch http://cmdb: unexpected status 500" {
		t.Errorf("unexpected message %q", status.Error())
	}

	if IsTransportError(ErrNotFound) {
		t.Error("expected plain sentinel not to be a transport error")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized, ErrForbidden,
		ErrSyncInProgress, ErrIntegrationInactive, ErrInvalidIntegrationType,
		ErrOAuth2NotImplemented, ErrTokenExpired, ErrTokenInvalid, ErrLogCompleted,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
