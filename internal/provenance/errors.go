package provenance

import "errors"

var (
	// ErrLoad reports that the source image could not be fetched or decoded.
	// Callers are expected to fall back to an unwatermarked download.
	ErrLoad = errors.New("provenance: load source image")
	// ErrEncode reports that the composited surface could not be encoded.
	ErrEncode = errors.New("provenance: encode image")
	// ErrSave reports that the sink rejected the finished file.
	ErrSave = errors.New("provenance: save image")
)
