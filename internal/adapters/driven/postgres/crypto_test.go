package postgres

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

var testKey = []byte("01234567890123456789012345678901")

func newTestCipher(t *testing.T) *CredentialCipher {
	t.Helper()
	c, err := NewCredentialCipher(testKey)
	if err != nil {
		t.Fatalf("NewCredentialCipher: %v", err)
	}
	return c
}

func TestCredentialCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)
	original := domain.Credentials{
		APIKey:   "sk-test-key",
		Username: "svc",
		Password: "p@ss",
	}

	blob, err := c.Seal(original)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if blob[0] != credentialsVersion {
		t.Errorf("version byte: got %d, want %d", blob[0], credentialsVersion)
	}
	if bytes.Contains(blob, []byte("sk-test-key")) {
		t.Error("sealed blob contains the plaintext api key")
	}

	opened, err := c.Open(blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened != original {
		t.Errorf("got %+v, want %+v", opened, original)
	}
}

func TestCredentialCipher_EmptyCredentials(t *testing.T) {
	c := newTestCipher(t)

	blob, err := c.Seal(domain.Credentials{})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if blob != nil {
		t.Errorf("expected nil blob, got %d bytes", len(blob))
	}

	opened, err := c.Open(nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !opened.IsZero() {
		t.Errorf("expected empty credentials, got %+v", opened)
	}
}

func TestCredentialCipher_InvalidKey(t *testing.T) {
	for _, size := range []int{0, 16, 64} {
		if _, err := NewCredentialCipher(make([]byte, size)); !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("size %d: expected ErrInvalidKeySize, got %v", size, err)
		}
	}

	if _, err := NewCredentialCipherFromHex("zz"); err == nil {
		t.Error("expected error for non-hex key")
	}
	if _, err := NewCredentialCipherFromHex(strings.Repeat("ab", 32)); err != nil {
		t.Errorf("expected 64 hex chars to be accepted, got %v", err)
	}
}

func TestCredentialCipher_OpenInvalidBlob(t *testing.T) {
	c := newTestCipher(t)

	if _, err := c.Open([]byte{credentialsVersion, 1, 2}); !errors.Is(err, ErrInvalidBlobSize) {
		t.Errorf("expected ErrInvalidBlobSize, got %v", err)
	}

	blob, _ := c.Seal(domain.Credentials{APIKey: "k"})
	blob[0] = 0x7f
	if _, err := c.Open(blob); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestCredentialCipher_WrongKey(t *testing.T) {
	c := newTestCipher(t)
	blob, _ := c.Seal(domain.Credentials{BearerToken: "tok"})

	other, _ := NewCredentialCipher([]byte("abcdefghijabcdefghijabcdefghij12"))
	if _, err := other.Open(blob); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestCredentialCipher_UniqueNonce(t *testing.T) {
	c := newTestCipher(t)
	creds := domain.Credentials{APIKey: "same"}

	a, _ := c.Seal(creds)
	b, _ := c.Seal(creds)
	if bytes.Equal(a, b) {
		t.Error("sealing twice produced identical blobs")
	}
}
