// Package source resolves image references into decoded images. A reference
// is an http(s) URL, a data URI, an s3://bucket/key object or a key in the
// local asset store.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyReference  = errors.New("source: empty reference")
	ErrUnsupported     = errors.New("source: unsupported reference")
	ErrHostNotAllowed  = errors.New("source: host not allowed")
	ErrTooLarge        = errors.New("source: image exceeds size limit")
	ErrTooManyPixels   = errors.New("source: image exceeds pixel limit")
	ErrInvalidDataURI  = errors.New("source: invalid data uri")
	ErrDecode          = errors.New("source: decode image")
	ErrInvalidLocation = errors.New("source: invalid object location")
)

// DefaultMaxBytes caps fetched sources when no limit is configured.
const DefaultMaxBytes = 25 << 20

// DefaultMaxPixels caps decoded dimensions when no limit is configured. The
// download pipeline holds several w*h*4 copies of an image at once.
const DefaultMaxPixels = 25_000_000

// Fetcher returns the raw bytes behind a reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// KeyReader reads objects from the local asset store.
type KeyReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// ObjectReader reads objects from an S3 compatible bucket.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Mux dispatches references to the loader for their scheme. A nil loader
// makes that scheme unsupported. MaxPixels bounds decoded images; zero means
// DefaultMaxPixels.
type Mux struct {
	HTTP      Fetcher
	Data      Fetcher
	Objects   ObjectReader
	Store     KeyReader
	MaxPixels int64
}

// Fetch returns the raw bytes for ref.
func (m *Mux) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyReference
	}
	switch scheme(ref) {
	case "http", "https":
		if m.HTTP == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, "http")
		}
		return m.HTTP.Fetch(ctx, ref)
	case "data":
		data := m.Data
		if data == nil {
			data = DataURI{}
		}
		return data.Fetch(ctx, ref)
	case "s3":
		if m.Objects == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, "s3")
		}
		bucket, key, err := ParseS3URL(ref)
		if err != nil {
			return nil, err
		}
		return m.Objects.ReadObject(ctx, bucket, key)
	default:
		if m.Store == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, "storage key")
		}
		return m.Store.Read(ctx, ref)
	}
}

// Load fetches and decodes ref.
func (m *Mux) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := m.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return DecodeLimit(data, m.MaxPixels)
}

// Decode decodes PNG, JPEG, GIF or WebP bytes within DefaultMaxPixels.
func Decode(data []byte) (image.Image, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit decodes data after checking the dimensions declared in its
// header against maxPixels, so an oversized image is rejected before any
// pixel buffer is allocated. A non-positive maxPixels means DefaultMaxPixels.
func DecodeLimit(data []byte, maxPixels int64) (image.Image, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidLocation, ref)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidLocation, ref)
	}
	return bucket, key, nil
}

func scheme(ref string) string {
	i := strings.Index(ref, ":")
	if i <= 0 {
		return ""
	}
	s := strings.ToLower(ref[:i])
	switch s {
	case "http", "https", "s3":
		if !strings.HasPrefix(ref[i:], "://") {
			return ""
		}
		return s
	case "data":
		return s
	}
	return ""
}
