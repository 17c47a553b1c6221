// Package config holds the TOML configuration of the fgaudit operator CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the fgaudit configuration file.
type Config struct {
	AppEnv      string        `toml:"app_env"`
	DefaultTier string        `toml:"default_tier"`
	Storage     StorageConfig `toml:"storage"`
	Sources     SourcesConfig `toml:"sources"`
	S3          S3Config      `toml:"s3"`
	Output      OutputConfig  `toml:"output"`
}

// StorageConfig points at the local asset store used for bare storage keys.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SourcesConfig bounds remote image fetching.
type SourcesConfig struct {
	AllowedHosts   []string `toml:"allowed_hosts"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxBytes       int64    `toml:"max_bytes"`
	MaxPixels      int64    `toml:"max_pixels"`
}

// Timeout returns the fetch timeout.
func (s SourcesConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// S3Config enables s3:// sources and the s3 output sink. Credentials are
// usually left to the environment.
type S3Config struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint,omitempty"`
	Bucket          string `toml:"bucket,omitempty"`
	Prefix          string `toml:"prefix,omitempty"`
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// Enabled reports whether an S3 client should be built.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" || s.Endpoint != ""
}

// OutputConfig selects where stamped files go: "dir" or "s3".
type OutputConfig struct {
	Sink string `toml:"sink"`
	Dir  string `toml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		AppEnv:      "production",
		DefaultTier: "free",
		Storage:     StorageConfig{Path: "./storage"},
		Sources:     SourcesConfig{TimeoutSeconds: 15, MaxBytes: 25 << 20, MaxPixels: 25_000_000},
		S3:          S3Config{Region: "us-east-1"},
		Output:      OutputConfig{Sink: "dir", Dir: "."},
	}
}

// Read decodes a Config from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes cfg to w.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads path, or the defaults when path is empty, then applies S3
// credentials from the environment (and a .env file when present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()
		if cfg, err = Read(f); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Output.Sink {
	case "dir", "s3":
	default:
		return fmt.Errorf("output.sink must be \"dir\" or \"s3\", got %q", c.Output.Sink)
	}
	switch strings.ToLower(c.DefaultTier) {
	case "free", "pro", "business":
	default:
		return fmt.Errorf("default_tier must be free, pro or business, got %q", c.DefaultTier)
	}
	if c.Output.Sink == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required for the s3 sink")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
}
