// Package client builds the HTTP client used to fetch remote dataset files.
// Responses are cached per RFC 7234 so restarts and retrains do not
// re-download CSV files that have not changed.
package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// Config holds common client configuration.
type Config struct {
	// CacheDir stores cached responses on disk so the cache survives
	// restarts. Empty means cache in memory only.
	CacheDir string

	// Timeout bounds each request including reading the body.
	Timeout time.Duration
}

// DefaultConfig returns the configuration the server uses when none is
// given: in-memory caching with a one minute timeout.
func DefaultConfig() Config {
	return Config{Timeout: time.Minute}
}

// New creates an HTTP client with a caching transport. Cached responses are
// marked with the X-From-Cache header.
func New(cfg Config) *http.Client {
	var cache httpcache.Cache = httpcache.NewMemoryCache()
	if cfg.CacheDir != "" {
		cache = diskcache.New(cfg.CacheDir)
	}

	return &http.Client{
		Transport: httpcache.NewTransport(cache),
		Timeout:   cfg.Timeout,
	}
}
