package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AssetStore = (*AssetStore)(nil)

// AssetStore implements driven.AssetStore over the physical_assets table.
// The unique identifier has its own column; every other mapped field lives
// in the fields JSONB document.
type AssetStore struct {
	db  *DB
	now func() time.Time
}

// NewAssetStore creates a new AssetStore
func NewAssetStore(db *DB) *AssetStore {
	return &AssetStore{db: db, now: time.Now}
}

const assetColumns = `id, unique_identifier, fields, created_by, updated_by, created_at, updated_at`

// FindByUniqueIdentifier returns domain.ErrNotFound when no asset matches
func (s *AssetStore) FindByUniqueIdentifier(ctx context.Context, identifier string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM physical_assets WHERE unique_identifier = $1`
	return scanAsset(s.db.QueryRowContext(ctx, query, identifier))
}

// Get retrieves an asset by ID
func (s *AssetStore) Get(ctx context.Context, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM physical_assets WHERE id = $1`
	return scanAsset(s.db.QueryRowContext(ctx, query, id))
}

// Create inserts a new asset. A record without a uniqueIdentifier gets a
// generated "AST-" identifier.
func (s *AssetStore) Create(ctx context.Context, fields domain.Record, actorID string) (*domain.Asset, error) {
	identifier, rest, err := splitIdentifier(fields)
	if err != nil {
		return nil, err
	}
	if identifier == "" {
		if identifier, err = generateIdentifier(); err != nil {
			return nil, err
		}
	}
	doc, err := json.Marshal(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: asset fields: %v", domain.ErrInvalidInput, err)
	}

	now := s.now()
	query := `
		INSERT INTO physical_assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $4, $5, $5)
		RETURNING ` + assetColumns
	asset, err := scanAsset(s.db.QueryRowContext(ctx, query, uuid.NewString(), identifier, doc, actorID, now))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: asset %q", domain.ErrAlreadyExists, identifier)
	}
	return asset, err
}

// Update merges the given fields into the stored document. Keys absent from
// fields keep their stored values. The identifier itself is never changed.
func (s *AssetStore) Update(ctx context.Context, id string, fields domain.Record, actorID string) (*domain.Asset, error) {
	_, rest, err := splitIdentifier(fields)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: asset fields: %v", domain.ErrInvalidInput, err)
	}

	query := `
		UPDATE physical_assets SET
			fields = fields || $2::jsonb,
			updated_by = $3,
			updated_at = $4
		WHERE id = $1
		RETURNING ` + assetColumns
	return scanAsset(s.db.QueryRowContext(ctx, query, id, doc, actorID, s.now()))
}

// splitIdentifier separates the identifier from the rest of the record.
func splitIdentifier(fields domain.Record) (string, domain.Record, error) {
	rest := fields.Clone()
	raw, ok := rest[domain.UniqueIdentifierField]
	delete(rest, domain.UniqueIdentifierField)
	if !ok || raw == nil {
		return "", rest, nil
	}
	identifier, err := cast.ToStringE(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: uniqueIdentifier: %v", domain.ErrInvalidInput, err)
	}
	return identifier, rest, nil
}

func generateIdentifier() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate asset identifier: %w", err)
	}
	return "AST-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var doc []byte

	err := row.Scan(
		&asset.ID,
		&asset.UniqueIdentifier,
		&doc,
		&asset.CreatedBy,
		&asset.UpdatedBy,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(doc, &asset.Fields); err != nil {
		return nil, fmt.Errorf("asset %s fields: %w", asset.ID, err)
	}
	return &asset, nil
}
