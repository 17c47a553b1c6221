package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	StorageBaseURL       string
	StoragePath          string
	ImageSourceAllowlist []string
	ImageFetchTimeout    time.Duration
	MaxImageBytes        int64
	MaxImagePixels       int64
	BatchConcurrency     int
	WatermarkBypassKey   string
	S3Region             string
	S3Endpoint           string
	S3Bucket             string
	S3AccessKeyID        string
	S3SecretAccessKey    string
	S3UsePathStyle       bool
	CORSAllowedOrigins   []string
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
	DBMaxConns           int32
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		ImageFetchTimeout:  time.Second * time.Duration(getEnvInt("IMAGE_FETCH_TIMEOUT_SECONDS", 15)),
		MaxImageBytes:      int64(getEnvInt("MAX_IMAGE_BYTES", 25<<20)),
		MaxImagePixels:     int64(getEnvInt("MAX_IMAGE_PIXELS", 25_000_000)),
		BatchConcurrency:   getEnvInt("BATCH_CONCURRENCY", 4),
		WatermarkBypassKey: getEnv("WATERMARK_BYPASS_ENV", "WATERMARK_DISABLE_VISIBLE"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3UsePathStyle:     getEnvBool("S3_USE_PATH_STYLE", false),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
	}
	cfg.ImageSourceAllowlist = buildAllowlist(cfg.StorageBaseURL, os.Getenv("IMAGE_SOURCE_HOST_ALLOWLIST"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// buildAllowlist merges the storage host with the explicit host list,
// lower-cased, de-duplicated and sorted.
func buildAllowlist(storageBaseURL, explicit string) []string {
	seen := map[string]struct{}{}
	if u, err := url.Parse(storageBaseURL); err == nil && u.Hostname() != "" {
		seen[strings.ToLower(u.Hostname())] = struct{}{}
	}
	for _, host := range splitList(explicit) {
		seen[strings.ToLower(host)] = struct{}{}
	}
	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
