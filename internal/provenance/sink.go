package provenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File is a finished provenance export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	// Checksum is the hex BLAKE3 digest of Data.
	Checksum string
}

// Sink accepts finished files.
type Sink interface {
	Save(ctx context.Context, file File) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, file File) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, file File) error {
	return f(ctx, file)
}

// DirSink writes files into a local directory.
type DirSink struct {
	Dir string
}

// Save writes file under the sink directory.
func (d DirSink) Save(ctx context.Context, file File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	target := filepath.Join(d.Dir, filepath.Base(file.Name))
	if err := os.WriteFile(target, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// Writer is the storage contract used by StoreSink.
type Writer interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// StoreSink writes files into a storage backend under Prefix.
type StoreSink struct {
	Store  Writer
	Prefix string
}

// Save writes file to the backing store.
func (s StoreSink) Save(ctx context.Context, file File) error {
	key := file.Name
	if s.Prefix != "" {
		key = filepath.ToSlash(filepath.Join(s.Prefix, file.Name))
	}
	if _, err := s.Store.Write(ctx, key, file.Data); err != nil {
		return err
	}
	return nil
}
