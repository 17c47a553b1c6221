package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/provenance"
	"studio/internal/watermark"
	"studio/pkg/zip"
)

const maxBatchAssets = 50

type batchDownloadRequest struct {
	AssetIDs []string `json:"asset_ids"`
	Filename string   `json:"filename"`
}

// DownloadAsset serves the provenance PNG of one owned asset. When the
// pipeline fails the caller still gets the original, unwatermarked.
func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	asset, ok := a.ownedAsset(ctx, w, userID, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	tier := a.currentTier(ctx, userID)
	start := a.now()

	req := a.provenanceRequest(*asset, userID, tier, r.URL.Query().Get("filename"))
	file, result, err := a.Provenance.Prepare(ctx, req)
	if err != nil {
		a.Logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("provenance download failed, serving original")
		a.recordDownload(ctx, domain.DownloadEvent{
			UserID:   userID,
			AssetID:  asset.ID,
			Tier:     tier,
			Fallback: true,
			Latency:  a.now().Sub(start),
		})
		a.serveOriginal(w, r, *asset)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", attachment(file.Name))
	w.Header().Set("X-Provenance-Checksum", file.Checksum)
	w.Header().Set("X-Provenance-Overlay", string(result.Overlay))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)

	a.recordDownload(ctx, downloadEvent(userID, asset.ID, tier, result, a.now().Sub(start)))
}

// DownloadBatch zips the provenance PNGs of several owned assets. Items that
// fail are archived as their original bytes; foreign or unknown ids are
// skipped.
func (a *App) DownloadBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var body batchDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ids := uniqueIDs(body.AssetIDs)
	if len(ids) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_ids is required")
		return
	}
	if len(ids) > maxBatchAssets {
		a.error(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d assets per download", maxBatchAssets))
		return
	}
	assets, err := a.Assets.ListByIDs(ctx, userID, ids)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list assets for batch download")
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch assets")
		return
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no downloadable assets")
		return
	}

	tier := a.currentTier(ctx, userID)
	start := a.now()
	reqs := make([]provenance.Request, len(assets))
	for i, asset := range assets {
		reqs[i] = a.provenanceRequest(asset, userID, tier, "")
	}
	outcomes := a.Provenance.PrepareBatch(ctx, reqs, a.batchLimit())

	entries := make([]zip.Asset, 0, len(outcomes))
	fallbacks := 0
	for i, out := range outcomes {
		asset := assets[i]
		if out.Err == nil {
			entries = append(entries, zip.Asset{Filename: out.File.Name, MIME: out.File.ContentType, Data: out.File.Data})
			a.recordDownload(ctx, downloadEvent(userID, asset.ID, tier, out.Result, a.now().Sub(start)))
			continue
		}
		fallbacks++
		a.Logger.Warn().Err(out.Err).Str("asset_id", asset.ID).Msg("batch item failed, archiving original")
		a.recordDownload(ctx, domain.DownloadEvent{UserID: userID, AssetID: asset.ID, Tier: tier, Fallback: true, Latency: a.now().Sub(start)})
		data, err := a.fetchOriginal(ctx, asset)
		if err != nil {
			a.Logger.Error().Err(err).Str("asset_id", asset.ID).Msg("original unavailable, omitted from archive")
			continue
		}
		entries = append(entries, zip.Asset{Filename: asset.BaseName() + extensionFor(asset.MIME), MIME: asset.MIME, Data: data})
	}

	archiveName := strings.TrimSuffix(provenance.SanitizeFileName(body.Filename), ".png") + ".zip"
	if strings.TrimSpace(body.Filename) == "" {
		archiveName = "fitgen-images.zip"
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(archiveName))
	w.Header().Set("X-Provenance-Fallbacks", fmt.Sprint(fallbacks))
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteAssets(w, entries, a.now()); err != nil {
		a.Logger.Error().Err(err).Msg("write batch archive")
	}
}

func (a *App) ownedAsset(ctx context.Context, w http.ResponseWriter, userID, assetID string) (*domain.Asset, bool) {
	if strings.TrimSpace(assetID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset id is required")
		return nil, false
	}
	asset, err := a.Assets.GetByID(ctx, assetID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return nil, false
	case err != nil:
		a.Logger.Error().Err(err).Str("asset_id", assetID).Msg("load asset")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load asset")
		return nil, false
	case asset.UserID != userID:
		a.error(w, http.StatusForbidden, "forbidden", "asset belongs to another user")
		return nil, false
	}
	return asset, true
}

func (a *App) provenanceRequest(asset domain.Asset, userID string, tier domain.Tier, name string) provenance.Request {
	if strings.TrimSpace(name) == "" {
		name = asset.BaseName()
	}
	return provenance.Request{
		ImageURL: asset.StorageKey,
		FileName: name,
		Tier:     tier,
		Metadata: watermark.Metadata{
			UserID:    userID,
			ImageID:   asset.ID,
			Timestamp: a.now().UnixMilli(),
		},
	}
}

func (a *App) serveOriginal(w http.ResponseWriter, r *http.Request, asset domain.Asset) {
	if target := a.assetURL(asset.StorageKey); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	data, err := a.fetchOriginal(r.Context(), asset)
	if err != nil {
		a.Logger.Error().Err(err).Str("asset_id", asset.ID).Msg("original unavailable")
		a.error(w, http.StatusBadGateway, "image_unavailable", "image could not be loaded")
		return
	}
	contentType := asset.MIME
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(asset.BaseName()+extensionFor(contentType)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *App) fetchOriginal(ctx context.Context, asset domain.Asset) ([]byte, error) {
	if a.Originals == nil {
		return nil, errors.New("no original source configured")
	}
	return a.Originals.Fetch(ctx, asset.StorageKey)
}

func downloadEvent(userID, assetID string, tier domain.Tier, result *provenance.Result, latency time.Duration) domain.DownloadEvent {
	event := domain.DownloadEvent{UserID: userID, AssetID: assetID, Tier: tier, Latency: latency}
	if result != nil {
		event.Checksum = result.Checksum
		event.Bytes = result.Bytes
		event.Overlay = string(result.Overlay)
		event.Embed = result.Embed.String()
	}
	return event
}

func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
