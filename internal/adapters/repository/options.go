package repository

import (
	"net/http"
	"time"

	"github.com/okian/guildstats/pkg/logger"
)

const (
	defaultFetchTimeout = 5 * time.Second
	defaultMaxPayload   = 64 << 20
)

// Option configures a Source.
type Option func(*options)

type options struct {
	logger  logger.Logger
	client  *http.Client
	timeout time.Duration

	maxPayload int64
}

func newOptions(opts []Option) options {
	o := options{timeout: defaultFetchTimeout, maxPayload: defaultMaxPayload}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient sets the client used by HTTPSource.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout bounds a single dataset fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxPayload caps the size of one dataset response from HTTPSource.
func WithMaxPayload(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPayload = n
		}
	}
}
