package safesubmit

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Config holds middleware configuration
type Config struct {
	Store        Store
	TTL          time.Duration
	KeyExtractor KeyExtractor
	Logger       zerolog.Logger
}

// KeyExtractor derives the idempotency token from a request, returning ""
// when none is present. A configured extractor fully replaces the default
// header/form/JSON precedence chain.
type KeyExtractor func(r *http.Request) string

// Option is a functional option for configuring the middleware
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		TTL:    DefaultTTL,
		Logger: zerolog.Nop(),
	}
}

// WithStore sets the reservation store. The default is a process-local
// in-memory store, suitable for single-instance deployments and tests.
func WithStore(s Store) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithTTL sets how long a reservation suppresses duplicates
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.TTL = ttl
	}
}

// WithKeyExtractor sets a custom token extraction function
func WithKeyExtractor(fn KeyExtractor) Option {
	return func(c *Config) {
		c.KeyExtractor = fn
	}
}

// WithLogger sets the logger used for swallowed store errors. The default
// discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
