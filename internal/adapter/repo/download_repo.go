package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// DownloadRepositoryPG stores download events in usage_events.
type DownloadRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewDownloadRepository(sql infra.SQLExecutor) *DownloadRepositoryPG {
	return &DownloadRepositoryPG{sql: sql}
}

type downloadProperties struct {
	AssetID  string `json:"asset_id"`
	Tier     string `json:"tier"`
	Checksum string `json:"checksum,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
	Overlay  string `json:"overlay,omitempty"`
	Embed    string `json:"embed,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// RecordDownload inserts event. A missing event id is generated.
func (r *DownloadRepositoryPG) RecordDownload(ctx context.Context, event domain.DownloadEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	props, err := json.Marshal(downloadProperties{
		AssetID:  event.AssetID,
		Tier:     string(event.Tier),
		Checksum: event.Checksum,
		Bytes:    event.Bytes,
		Overlay:  event.Overlay,
		Embed:    event.Embed,
		Fallback: event.Fallback,
	})
	if err != nil {
		return fmt.Errorf("encode download properties: %w", err)
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QInsertDownloadEvent,
		event.ID,
		event.UserID,
		event.RequestID,
		!event.Fallback,
		int(event.Latency.Milliseconds()),
		props,
	); err != nil {
		return fmt.Errorf("insert download event: %w", err)
	}
	return nil
}

var _ domain.DownloadRepository = (*DownloadRepositoryPG)(nil)
