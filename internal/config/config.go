package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
	"storepilot/internal/server"
)

// Config holds the application configuration
type Config struct {
	Server  server.Config  `yaml:"server"`
	Logging LoggingConfig  `yaml:"logging"`
	Catalog catalog.Config `yaml:"catalog"`
	Agent   agent.Config   `yaml:"agent"`
}

// ServiceConfig defines the standard configuration lifecycle methods.
// Each component config implements this interface so configuration is
// handled consistently across the application.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths using the given config directory
	ResolvePaths(configDir string)

	// Validate returns an error if the configuration is invalid
	Validate() error
}

// LoadConfig loads configuration from files and environment variables
// Order: defaults -> config.yml -> config.local.yml -> ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig() *Config {
	// 1. Start with default values (so YAML can override them, including bool fields)
	cfg := &Config{
		Server:  server.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
		Catalog: catalog.DefaultConfig(),
		Agent:   agent.DefaultConfig(),
	}

	// 2. Load config.yml (overrides defaults)
	loadFile("config/config.yml", cfg)

	// 3. Load config.local.yml (overrides config.yml)
	loadFile("config/config.local.yml", cfg)

	// 4. Apply configuration lifecycle: ApplyDefaults fills gaps, ApplyEnvOverrides, ResolvePaths, Validate
	configDir := "config"
	if err := ApplyServiceConfigs(configDir,
		&cfg.Server,
		&cfg.Logging,
		&cfg.Catalog,
		&cfg.Agent,
	); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	return cfg
}

// ApplyServiceConfigs applies the configuration lifecycle to all service configs.
// It calls ApplyDefaults, ApplyEnvOverrides, ResolvePaths, and Validate in order.
func ApplyServiceConfigs(configDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
