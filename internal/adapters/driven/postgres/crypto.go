package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
)

const (
	// credentialsVersion prefixes every sealed blob so the format can change later.
	credentialsVersion = 0x01

	nonceSize = 12

	// CredentialKeySize is the AES-256 key length in bytes.
	CredentialKeySize = 32
)

var (
	ErrInvalidKeySize     = errors.New("credentials key must be 32 bytes")
	ErrInvalidBlobSize    = errors.New("sealed credentials are too small")
	ErrUnsupportedVersion = errors.New("unsupported sealed credentials version")
	// ErrDecryptionFailed covers both a wrong key and a corrupted blob.
	ErrDecryptionFailed = errors.New("failed to open sealed credentials")
)

// CredentialCipher seals integration credentials with AES-256-GCM before
// they are written to integration_configs.credentials.
// Blob layout: version(1) || nonce(12) || ciphertext.
type CredentialCipher struct {
	gcm cipher.AEAD
}

// NewCredentialCipher creates a cipher from a raw 32-byte key.
func NewCredentialCipher(key []byte) (*CredentialCipher, error) {
	if len(key) != CredentialKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &CredentialCipher{gcm: gcm}, nil
}

// NewCredentialCipherFromHex creates a cipher from a hex-encoded key, the
// form the key takes in configuration.
func NewCredentialCipherFromHex(hexKey string) (*CredentialCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode credentials key: %w", err)
	}
	return NewCredentialCipher(key)
}

// Seal encrypts credentials. Empty credentials seal to nil so the column stays NULL.
func (c *CredentialCipher) Seal(creds domain.Credentials) ([]byte, error) {
	if creds.IsZero() {
		return nil, nil
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	blob := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+c.gcm.Overhead())
	blob[0] = credentialsVersion
	if _, err := rand.Read(blob[1 : 1+nonceSize]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.gcm.Seal(blob, blob[1:1+nonceSize], plaintext, nil), nil
}

// Open decrypts a blob produced by Seal. A nil blob opens to empty credentials.
func (c *CredentialCipher) Open(blob []byte) (domain.Credentials, error) {
	var creds domain.Credentials
	if len(blob) == 0 {
		return creds, nil
	}
	if len(blob) < 1+nonceSize+c.gcm.Overhead() {
		return creds, ErrInvalidBlobSize
	}
	if blob[0] != credentialsVersion {
		return creds, fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	plaintext, err := c.gcm.Open(nil, blob[1:1+nonceSize], blob[1+nonceSize:], nil)
	if err != nil {
		return creds, ErrDecryptionFailed
	}
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return creds, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return creds, nil
}
