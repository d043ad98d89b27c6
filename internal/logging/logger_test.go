package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepilot/internal/config"
)

func TestNewLoggerWritesFiles(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultLoggingConfig()
	cfg.Dir = dir
	cfg.Console.Enabled = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("hello from test")
	logger.Error("something failed")
	require.NoError(t, Shutdown())

	assert.FileExists(t, filepath.Join(dir, "storepilot.log"))
	assert.FileExists(t, filepath.Join(dir, "errors.log"))
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewLevelFilter(inner, slog.LevelWarn)

	logger := slog.New(filter)
	logger.Info("filtered out")
	logger.Warn("kept")
	logger.Error("also kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered out")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "also kept")
}

func TestLevelFilterEnabled(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	filter := NewLevelFilter(inner, slog.LevelWarn)

	ctx := context.Background()
	assert.False(t, filter.Enabled(ctx, slog.LevelInfo))
	assert.True(t, filter.Enabled(ctx, slog.LevelWarn))
	assert.True(t, filter.Enabled(ctx, slog.LevelError))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)

	logger := slog.New(multi)
	logger.Info("fan out", "key", "value")

	assert.Contains(t, a.String(), "fan out")
	assert.Contains(t, b.String(), `"fan out"`)
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var errorsOnly bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&errorsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	logger := slog.New(multi)
	logger.Info("quiet")
	logger.Error("loud")

	assert.NotContains(t, errorsOnly.String(), "quiet")
	assert.Contains(t, errorsOnly.String(), "loud")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}
