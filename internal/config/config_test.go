package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepilot/internal/catalog"
	"storepilot/internal/server"
)

func TestApplyServiceConfigsFillsDefaults(t *testing.T) {
	srv := server.Config{}
	cat := catalog.Config{}
	logging := LoggingConfig{}

	err := ApplyServiceConfigs("config", &srv, &cat, &logging)
	require.NoError(t, err)

	assert.Equal(t, 8080, srv.HTTPPort)
	assert.Equal(t, 250, cat.PageSize)
	assert.Equal(t, "2024-01", cat.APIVersion)
	assert.Equal(t, "info", logging.Level)
}

func TestApplyServiceConfigsRejectsInvalid(t *testing.T) {
	cat := catalog.Config{PageSize: 500}

	err := ApplyServiceConfigs("config", &cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestLoggingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoggingConfig)
		wantErr bool
	}{
		{"defaults valid", func(*LoggingConfig) {}, false},
		{"bad level", func(c *LoggingConfig) { c.Level = "verbose" }, true},
		{"bad format", func(c *LoggingConfig) { c.Format = "xml" }, true},
		{"empty dir", func(c *LoggingConfig) { c.Dir = "" }, true},
		{"bad console level", func(c *LoggingConfig) { c.Console.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLoggingConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoggingConfigEnvOverride(t *testing.T) {
	t.Setenv("STOREPILOT_LOG_LEVEL", "debug")

	cfg := DefaultLoggingConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "debug", cfg.Console.Level)
	assert.Equal(t, "debug", cfg.File.Level)
}

func TestLoggingConfigResolvePaths(t *testing.T) {
	cfg := DefaultLoggingConfig()
	cfg.Dir = "logs"
	cfg.ResolvePaths("deploy/config")

	assert.Equal(t, "deploy/logs", cfg.Dir)
}
