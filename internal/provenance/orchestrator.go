// Package provenance turns a source image into a downloadable PNG that always
// carries the invisible provenance watermark and, depending on the tier, the
// visible brand overlay.
package provenance

import (
	"context"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"

	"studio/internal/canvas"
	"studio/internal/domain"
	"studio/internal/watermark"
	"studio/internal/watermark/overlay"
)

const contentTypePNG = "image/png"

// Loader decodes an image reference (URL, data URI, object or storage key).
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// OverlayStatus reports what happened to the visible overlay.
type OverlayStatus string

const (
	OverlayNotRequired OverlayStatus = "not_required"
	OverlayRendered    OverlayStatus = "rendered"
	OverlaySkipped     OverlayStatus = "skipped"
)

// Request describes one download.
type Request struct {
	ImageURL string
	FileName string
	Tier     domain.Tier
	Metadata watermark.Metadata
}

// Result describes a finished download.
type Result struct {
	FileName string
	Width    int
	Height   int
	Bytes    int
	Checksum string
	Embed    watermark.EmbedStatus
	Overlay  OverlayStatus
}

// Orchestrator composes loading, overlay, embedding and encoding. It holds no
// per-download state and is safe for concurrent use.
type Orchestrator struct {
	loader   Loader
	policy   watermark.Policy
	renderer overlay.Renderer
	logger   zerolog.Logger
}

// New constructs an Orchestrator.
func New(loader Loader, policy watermark.Policy, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{loader: loader, policy: policy, logger: logger}
}

// Download prepares the file for req and hands it to sink.
func (o *Orchestrator) Download(ctx context.Context, req Request, sink Sink) (*Result, error) {
	file, result, err := o.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(ctx, *file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}
	return result, nil
}

// Prepare loads the source and produces the watermarked PNG without saving
// it. Any failure is returned; a partially processed image is never handed
// out.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*File, *Result, error) {
	src, err := o.loader.Load(ctx, req.ImageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	surface := canvas.FromImage(src)
	result := &Result{
		FileName: SanitizeFileName(req.FileName),
		Width:    surface.Width(),
		Height:   surface.Height(),
		Overlay:  OverlayNotRequired,
	}

	// The overlay goes first so the payload lands on the final pixels and the
	// brand text cannot overwrite it.
	if o.policy.ShouldShowVisible(req.Tier) {
		switch o.renderer.Render(surface) {
		case overlay.Rendered:
			result.Overlay = OverlayRendered
		default:
			result.Overlay = OverlaySkipped
			o.logger.Debug().Str("image_id", req.Metadata.ImageID).Msg("provenance: no drawing context, visible overlay skipped")
		}
	}

	pixels := surface.ImageData()
	result.Embed = watermark.Embed(pixels, req.Metadata)
	if result.Embed == watermark.EmbedTruncated {
		o.logger.Warn().
			Str("image_id", req.Metadata.ImageID).
			Int("width", result.Width).
			Int("height", result.Height).
			Int("required_pixels", watermark.RequiredPixels(req.Metadata)).
			Msg("provenance: image too small, watermark truncated")
	}
	if err := surface.PutImageData(pixels); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	data, err := surface.PNG()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	sum := blake3.Sum256(data)
	result.Bytes = len(data)
	result.Checksum = hex.EncodeToString(sum[:])

	o.logger.Debug().
		Str("image_id", req.Metadata.ImageID).
		Str("tier", string(req.Tier)).
		Str("overlay", string(result.Overlay)).
		Str("embed", result.Embed.String()).
		Int("bytes", result.Bytes).
		Msg("provenance: image prepared")

	file := &File{
		Name:        result.FileName,
		ContentType: contentTypePNG,
		Data:        data,
		Checksum:    result.Checksum,
	}
	return file, result, nil
}
