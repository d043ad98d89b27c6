package agent

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the configuration for the AI agent platform client.
// The API key is deliberately not validated at startup: endpoints that
// need the agent report a 500 when it is absent, everything else keeps
// working.
type Config struct {
	// BaseURL of the agent platform API.
	BaseURL string `yaml:"base_url"`

	// APIKey is the organization service key. Environment only, never
	// from the config file.
	APIKey string `yaml:"-"`

	// APIVersion is sent as the X-API-Version header.
	APIVersion string `yaml:"api_version"`

	// UserID identifies this service to the platform (X-User-Id header)
	// and is echoed back in sync results.
	UserID string `yaml:"user_id"`

	// RequestTimeout bounds each upstream HTTP call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultConfig returns safe defaults for the agent platform client.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://api.sensay.io",
		APIVersion:     "2025-03-25",
		UserID:         "storepilot",
		RequestTimeout: 60 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = defaults.APIVersion
	}
	if c.UserID == "" {
		c.UserID = defaults.UserID
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STOREPILOT_AGENT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("STOREPILOT_AGENT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("STOREPILOT_AGENT_USER_ID"); v != "" {
		c.UserID = v
	}
}

// ResolvePaths resolves relative paths using the given base directory.
// No paths to resolve in agent config.
func (c *Config) ResolvePaths(_ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("agent base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	return nil
}
