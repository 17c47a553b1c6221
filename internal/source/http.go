package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultFetchTimeout = 15 * time.Second

// HTTPOptions configures an HTTPLoader.
type HTTPOptions struct {
	// AllowedHosts lists host names that may be fetched. Empty allows none.
	AllowedHosts []string
	MaxBytes     int64
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// HTTPLoader fetches images over http(s) from allowlisted hosts.
type HTTPLoader struct {
	client   *http.Client
	allowed  map[string]struct{}
	maxBytes int64
	logger   zerolog.Logger
}

// NewHTTPLoader constructs a loader with defaults applied.
func NewHTTPLoader(opts HTTPOptions) *HTTPLoader {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	allowed := make(map[string]struct{}, len(opts.AllowedHosts))
	for _, host := range opts.AllowedHosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			allowed[host] = struct{}{}
		}
	}
	return &HTTPLoader{client: client, allowed: allowed, maxBytes: maxBytes, logger: opts.Logger}
}

// Allowed reports whether host may be fetched.
func (l *HTTPLoader) Allowed(host string) bool {
	_, ok := l.allowed[strings.ToLower(host)]
	return ok
}

// Fetch downloads ref and returns its body.
func (l *HTTPLoader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("source: invalid image url: %s", ref)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, parsed.Scheme)
	}
	if !l.Allowed(parsed.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, parsed.Hostname())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("source: download status %d", resp.StatusCode)
	}
	if resp.ContentLength > l.maxBytes {
		return nil, ErrTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("source: read image: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}
	l.logger.Debug().
		Str("host", parsed.Hostname()).
		Int("bytes", len(data)).
		Msg("source: fetched image")
	return data, nil
}
