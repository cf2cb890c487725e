package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nucleo/portfolio-tracker/internal/models"
)

// AssetRepository handles tracked asset persistence
type AssetRepository struct {
	db *PostgresDB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *PostgresDB) *AssetRepository {
	return &AssetRepository{db: db}
}

// ListAll returns every tracked asset, the native sentinel included
func (r *AssetRepository) ListAll(ctx context.Context) ([]*models.Asset, error) {
	query := `
		SELECT id, code, issuer_address, asset_id, domain, color, created_at
		FROM assets
		ORDER BY asset_id
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var asset models.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Code,
			&asset.IssuerAddress,
			&asset.AssetID,
			&asset.Domain,
			&asset.Color,
			&asset.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, &asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// GetByAssetID retrieves an asset by its canonical identifier
func (r *AssetRepository) GetByAssetID(ctx context.Context, assetID string) (*models.Asset, error) {
	query := `
		SELECT id, code, issuer_address, asset_id, domain, color, created_at
		FROM assets
		WHERE asset_id = $1
	`

	var asset models.Asset
	err := r.db.Pool().QueryRow(ctx, query, assetID).Scan(
		&asset.ID,
		&asset.Code,
		&asset.IssuerAddress,
		&asset.AssetID,
		&asset.Domain,
		&asset.Color,
		&asset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("asset not found: %s", assetID)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

// Register inserts an asset if its (code, issuer) pair is new. Used by the
// collector to register assets observed in account balances lazily.
func (r *AssetRepository) Register(ctx context.Context, code string, issuer *string) error {
	issuerStr := ""
	if issuer != nil {
		issuerStr = *issuer
	}

	query := `
		INSERT INTO assets (id, code, issuer_address, asset_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset_id) DO NOTHING
	`

	_, err := r.db.Pool().Exec(ctx, query,
		uuid.New().String(),
		code,
		issuer,
		models.MakeAssetID(code, issuerStr),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to register asset: %w", err)
	}

	return nil
}

// EnsureNative inserts the native asset sentinel row if missing
func (r *AssetRepository) EnsureNative(ctx context.Context) error {
	return r.Register(ctx, models.NativeAssetCode, nil)
}

// UpdateMetadata refreshes display metadata fetched from the ticker feed
func (r *AssetRepository) UpdateMetadata(ctx context.Context, assetID string, domain *string) error {
	query := `
		UPDATE assets
		SET domain = $2
		WHERE asset_id = $1
	`

	if _, err := r.db.Pool().Exec(ctx, query, assetID, domain); err != nil {
		return fmt.Errorf("failed to update asset metadata: %w", err)
	}

	return nil
}
