package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadAppliesDefaults(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
default_tier = "pro"

[sources]
allowed_hosts = ["cdn.example.com"]
max_pixels = 4000000

[output]
dir = "/tmp/out"
`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.DefaultTier != "pro" {
		t.Errorf("DefaultTier = %q, want pro", cfg.DefaultTier)
	}
	if cfg.Output.Sink != "dir" || cfg.Output.Dir != "/tmp/out" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Sources.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Sources.Timeout())
	}
	if cfg.Sources.MaxPixels != 4_000_000 || cfg.Sources.MaxBytes != 25<<20 {
		t.Errorf("Sources limits = %d bytes, %d pixels", cfg.Sources.MaxBytes, cfg.Sources.MaxPixels)
	}
	if len(cfg.Sources.AllowedHosts) != 1 || cfg.Storage.Path != "./storage" {
		t.Errorf("Sources = %+v, Storage = %+v", cfg.Sources, cfg.Storage)
	}
}

func TestReadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"sink":       "[output]\nsink = \"ftp\"\n",
		"tier":       "default_tier = \"gold\"\n",
		"s3 bucket":  "[output]\nsink = \"s3\"\n",
		"bad syntax": "default_tier = ",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(doc)); err == nil {
				t.Fatalf("Read() expected error")
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	original := Default()
	original.S3 = S3Config{Region: "eu-west-1", Bucket: "exports", Prefix: "audit", UsePathStyle: true}
	original.Output.Sink = "s3"

	var buf bytes.Buffer
	if err := Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.S3 != original.S3 || got.Output != original.Output {
		t.Errorf("round trip = %+v, want %+v", got, original)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fgaudit.toml")
	if err := os.WriteFile(path, []byte("[s3]\nbucket = \"exports\"\naccess_key_id = \"from-file\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("S3_ACCESS_KEY_ID", "from-env")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_ENDPOINT", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.S3.AccessKeyID != "from-env" || cfg.S3.SecretAccessKey != "secret" {
		t.Errorf("S3 = %+v", cfg.S3)
	}
	if !cfg.S3.Enabled() {
		t.Errorf("S3 should be enabled with a bucket")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("Load() expected error for missing file")
	}
}
