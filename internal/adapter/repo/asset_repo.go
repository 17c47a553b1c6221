package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type AssetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAssetRepository constructs a new asset repository instance.
func NewAssetRepository(sql infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{sql: sql}
}

// GetByID fetches one asset regardless of owner; ownership is checked by the
// caller so it can answer 403 rather than 404.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	asset, err := scanAsset(r.sql.QueryRow(ctx, sqlinline.QSelectAssetByID, assetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select asset: %w", err)
	}
	return asset, nil
}

// ListByIDs returns the assets among assetIDs owned by userID, in request
// order. Unknown or foreign ids are omitted.
func (r *AssetRepositoryPG) ListByIDs(ctx context.Context, userID string, assetIDs []string) ([]domain.Asset, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListAssetsByIDsForUser, userID, assetIDs)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	var kind string
	if err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&kind,
		&asset.StorageKey,
		&asset.MIME,
		&asset.Bytes,
		&asset.Width,
		&asset.Height,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	asset.Kind = domain.AssetKind(kind)
	return &asset, nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
