// Package config defines service configuration and its layered loading.
package config

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Dataset source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Source picks where datasets are read from: file, http or postgres.
	Source string `koanf:"source"`

	// DataDir holds members.json and achievements.json for the file source.
	DataDir string `koanf:"data_dir"`

	// DataURL is the base URL serving both datasets for the http source.
	DataURL string `koanf:"data_url"`

	// DatabaseURL is the connection string for the postgres source.
	DatabaseURL string `koanf:"database_url"`

	// FetchTimeoutMS bounds a single dataset load.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// SnapshotTTLMS is how long a loaded snapshot is reused; 0 loads per request.
	SnapshotTTLMS int `koanf:"snapshot_ttl_ms"`

	// TopN is the number of members shown on the home view.
	TopN int `koanf:"top_n"`

	// CORSAllowOrigins lists origins allowed to call the API.
	CORSAllowOrigins []string `koanf:"cors_allow_origins"`

	// RateLimitEnabled turns on the per-IP limiter.
	RateLimitEnabled bool `koanf:"rate_limit_enabled"`

	// RateLimitRequests requests are allowed per RateLimitWindowS seconds.
	RateLimitRequests int `koanf:"rate_limit_requests"`
	RateLimitWindowS  int `koanf:"rate_limit_window_s"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are honoured. Empty trusts no one.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// New returns a Config holding the defaults. The context is reserved for
// future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Source:            SourceFile,
		DataDir:           "data",
		FetchTimeoutMS:    5_000,
		SnapshotTTLMS:     30_000,
		TopN:              5,
		CORSAllowOrigins:  []string{"*"},
		RateLimitEnabled:  true,
		RateLimitRequests: 120,
		RateLimitWindowS:  60,
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// SnapshotTTL returns SnapshotTTLMS as a duration.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMS) * time.Millisecond
}

// RateLimitWindow returns RateLimitWindowS as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowS) * time.Second
}

// SourceLocation returns the directory, URL or connection string matching Source.
func (c *Config) SourceLocation() string {
	switch c.Source {
	case SourceHTTP:
		return c.DataURL
	case SourcePostgres:
		return c.DatabaseURL
	}
	return c.DataDir
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, v := range c.TrustedProxies {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			addr, err := netip.ParseAddr(v)
			if err != nil {
				return nil, fmt.Errorf("%w: trusted proxy %q: %w", ErrInvalidConfig, v, err)
			}
			out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, fmt.Errorf("%w: trusted proxy %q: %w", ErrInvalidConfig, v, err)
		}
		out = append(out, p.Masked())
	}
	return out, nil
}
