package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/middleware"
	"studio/internal/provenance"
	"studio/internal/source"
)

// App carries the collaborators shared by the HTTP handlers.
type App struct {
	Config     *infra.Config
	Logger     zerolog.Logger
	Assets     domain.AssetRepository
	Users      domain.UserRepository
	Downloads  domain.DownloadRepository
	Provenance *provenance.Orchestrator
	// Originals fetches unwatermarked bytes for the fallback path.
	Originals source.Fetcher
	Now       func() time.Time
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errorDetail{Code: errCode, Message: message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// currentTier prefers the stored tier so plan changes apply before the
// caller's token is refreshed.
func (a *App) currentTier(ctx context.Context, userID string) domain.Tier {
	tokenTier := middleware.TierFromContext(ctx)
	if a.Users == nil {
		return tokenTier
	}
	tier, err := a.Users.GetTier(ctx, userID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("user_id", userID).Msg("tier lookup failed, using token tier")
		return tokenTier
	}
	return tier
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// assetURL returns a browser reachable location for the original asset, or
// "" when the asset lives somewhere the browser cannot follow.
func (a *App) assetURL(storageKey string) string {
	key := strings.TrimSpace(storageKey)
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return key
	}
	if key == "" || strings.Contains(lower, ":") || a.Config == nil || a.Config.StorageBaseURL == "" {
		return ""
	}
	return strings.TrimRight(a.Config.StorageBaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}

func (a *App) batchLimit() int {
	if a.Config != nil && a.Config.BatchConcurrency > 0 {
		return a.Config.BatchConcurrency
	}
	return provenance.DefaultBatchLimit
}

func (a *App) recordDownload(ctx context.Context, event domain.DownloadEvent) {
	if a.Downloads == nil {
		return
	}
	event.RequestID = middleware.RequestIDFromContext(ctx)
	if err := a.Downloads.RecordDownload(ctx, event); err != nil {
		a.Logger.Error().Err(err).Str("asset_id", event.AssetID).Msg("record download failed")
	}
}
