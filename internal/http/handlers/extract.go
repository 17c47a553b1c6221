package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"studio/internal/source"
	"studio/internal/watermark"
)

const extractFormField = "image"

type extractResponse struct {
	Found    bool                `json:"found"`
	Metadata *watermark.Metadata `json:"metadata"`
}

// ExtractWatermark reads the invisible provenance mark from an uploaded
// image, sent either as multipart field "image" or as the raw body.
func (a *App) ExtractWatermark(w http.ResponseWriter, r *http.Request) {
	limit := int64(source.DefaultMaxBytes)
	if a.Config != nil && a.Config.MaxImageBytes > 0 {
		limit = a.Config.MaxImageBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	data, err := readUpload(r, limit)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, source.ErrTooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	var maxPixels int64
	if a.Config != nil {
		maxPixels = a.Config.MaxImagePixels
	}
	img, err := source.DecodeLimit(data, maxPixels)
	if errors.Is(err, source.ErrTooManyPixels) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds pixel limit")
		return
	}
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported or corrupt image")
		return
	}

	meta, ok := watermark.ExtractImage(img)
	resp := extractResponse{Found: ok}
	if ok {
		resp.Metadata = &meta
	}
	a.Logger.Info().
		Str("user_id", a.currentUserID(r)).
		Bool("found", ok).
		Str("image_id", meta.ImageID).
		Msg("watermark extraction")
	a.json(w, http.StatusOK, resp)
}

func readUpload(r *http.Request, limit int64) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var body io.Reader = r.Body
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(limit); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile(extractFormField)
		if err != nil {
			return nil, errors.New("multipart field \"image\" is required")
		}
		defer file.Close()
		body = file
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, source.ErrTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("image is required")
	}
	return data, nil
}
