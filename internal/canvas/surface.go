// Package canvas provides an in-memory drawable surface: a non-premultiplied
// RGBA pixel store that can hand out its raw bytes and a 2D drawing context.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"studio/internal/watermark/overlay"
)

// ErrPixelLength is returned when a pixel buffer does not match the surface.
var ErrPixelLength = errors.New("canvas: pixel buffer length mismatch")

// Surface stores pixels as *image.NRGBA so that every byte written through
// PutImageData reaches the encoded PNG unchanged. Drawing happens on a
// premultiplied copy that is folded back lazily; only pixels the drawing
// context actually changed are re-derived.
type Surface struct {
	img *image.NRGBA

	rgba  *image.RGBA
	base  []byte
	dirty bool
	ctx   *context2D
}

// New allocates a transparent surface of the given size.
func New(width, height int) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// FromImage allocates a surface at the natural size of src and draws src
// onto it unscaled.
func FromImage(src image.Image) *Surface {
	b := src.Bounds()
	s := New(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), src, b.Min, draw.Src)
	return s
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// ImageData returns a copy of the pixels, row-major RGBA.
func (s *Surface) ImageData() []byte {
	s.sync()
	return append([]byte(nil), s.img.Pix...)
}

// PutImageData replaces every pixel with pix.
func (s *Surface) PutImageData(pix []byte) error {
	if len(pix) != len(s.img.Pix) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPixelLength, len(pix), len(s.img.Pix))
	}
	s.sync()
	copy(s.img.Pix, pix)
	if s.rgba != nil {
		nrgbaToRGBA(s.rgba.Pix, s.img.Pix)
		copy(s.base, s.rgba.Pix)
	}
	return nil
}

// Image returns the current pixels. The image aliases the surface.
func (s *Surface) Image() *image.NRGBA {
	s.sync()
	return s.img
}

// Context2D returns the drawing context of the surface. Empty surfaces have
// no context.
func (s *Surface) Context2D() (overlay.Context2D, bool) {
	if s.Width() == 0 || s.Height() == 0 {
		return nil, false
	}
	if s.ctx == nil {
		s.rgba = image.NewRGBA(s.img.Rect)
		nrgbaToRGBA(s.rgba.Pix, s.img.Pix)
		s.base = append([]byte(nil), s.rgba.Pix...)
		s.ctx = newContext2D(s)
	}
	return s.ctx, true
}

// EncodePNG writes the surface as a PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, s.Image()); err != nil {
		return fmt.Errorf("canvas: encode png: %w", err)
	}
	return nil
}

// PNG returns the PNG encoding of the surface.
func (s *Surface) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Surface) markDirty() { s.dirty = true }

// sync folds drawing changes back into the NRGBA store.
func (s *Surface) sync() {
	if !s.dirty || s.rgba == nil {
		return
	}
	pix, base, out := s.rgba.Pix, s.base, s.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] == base[i] && pix[i+1] == base[i+1] && pix[i+2] == base[i+2] && pix[i+3] == base[i+3] {
			continue
		}
		unpremultiply(out[i:i+4], pix[i:i+4])
	}
	copy(s.base, pix)
	s.dirty = false
}
