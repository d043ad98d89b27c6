package catalog

import (
	"fmt"
	"os"
	"time"
)

// Config holds the configuration for the Shopify catalog client.
type Config struct {
	// APIVersion is the Shopify Admin API version used in request paths.
	APIVersion string `yaml:"api_version"`

	// PageSize is the number of products requested per page (max 250).
	PageSize int `yaml:"page_size"`

	// RequestTimeout bounds each upstream HTTP call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RateLimit is the sustained request rate against the Admin API in
	// requests per second. Shopify's REST limit is 2 rps per store.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the burst allowance for the rate limiter.
	RateBurst int `yaml:"rate_burst"`
}

// DefaultConfig returns safe defaults for the Shopify Admin API.
func DefaultConfig() Config {
	return Config{
		APIVersion:     "2024-01",
		PageSize:       250,
		RequestTimeout: 30 * time.Second,
		RateLimit:      2,
		RateBurst:      4,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.APIVersion == "" {
		c.APIVersion = defaults.APIVersion
	}
	if c.PageSize == 0 {
		c.PageSize = defaults.PageSize
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = defaults.RateLimit
	}
	if c.RateBurst == 0 {
		c.RateBurst = defaults.RateBurst
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STOREPILOT_SHOPIFY_API_VERSION"); v != "" {
		c.APIVersion = v
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in catalog config.
func (c *Config) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > 250 {
		return fmt.Errorf("catalog page_size must be between 1 and 250, got %d", c.PageSize)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("catalog rate_limit must be positive, got %v", c.RateLimit)
	}
	return nil
}
