package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	GetTier(ctx context.Context, userID string) (Tier, error)
}

// AssetRepository handles lookups for stored assets.
type AssetRepository interface {
	GetByID(ctx context.Context, assetID string) (*Asset, error)
	ListByIDs(ctx context.Context, userID string, assetIDs []string) ([]Asset, error)
}

// DownloadRepository persists provenance download events.
type DownloadRepository interface {
	RecordDownload(ctx context.Context, event DownloadEvent) error
}
