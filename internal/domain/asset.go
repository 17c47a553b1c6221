package domain

import (
	"path"
	"strings"
	"time"
)

// AssetKind enumerates asset types.
type AssetKind string

const (
	AssetKindOriginal  AssetKind = "ORIGINAL"
	AssetKindGenerated AssetKind = "GENERATED"
)

// Asset represents a stored image belonging to a user. StorageKey is either a
// key inside the local store or an absolute reference (https URL, data URI,
// s3://bucket/key).
type Asset struct {
	ID         string
	UserID     string
	Kind       AssetKind
	StorageKey string
	MIME       string
	Bytes      int64
	Width      int
	Height     int
	CreatedAt  time.Time
}

// BaseName returns a file name stem derived from the storage key, falling back
// to the asset id.
func (a Asset) BaseName() string {
	key := strings.TrimSpace(a.StorageKey)
	if key == "" || strings.HasPrefix(strings.ToLower(key), "data:") {
		return a.ID
	}
	if idx := strings.IndexAny(key, "?#"); idx >= 0 {
		key = key[:idx]
	}
	base := path.Base(key)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return a.ID
	}
	return base
}

// DownloadEvent records a provenance download for later attribution.
// Fallback marks downloads that were served without watermarks because the
// provenance pipeline failed.
type DownloadEvent struct {
	ID        string
	UserID    string
	AssetID   string
	RequestID string
	Tier      Tier
	Checksum  string
	Bytes     int
	Overlay   string
	Embed     string
	Fallback  bool
	Latency   time.Duration
}
