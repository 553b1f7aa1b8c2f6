package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("PORT", "")
	t.Setenv("BACKEND_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("WATCH_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3456", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.WatchEnabled)
	assert.Equal(t, filepath.Join(dataDir, "storage"), cfg.StorageDir)
	assert.Equal(t, filepath.Join(dataDir, "metadata"), cfg.MetadataDir)
	assert.Equal(t, filepath.Join(dataDir, "library"), cfg.LibraryDir)

	// The directory tree is created on load.
	assert.DirExists(t, cfg.StorageDir)
	assert.DirExists(t, cfg.MetadataDir)
	assert.DirExists(t, cfg.LibraryDir)
}

func TestBackendPortWinsOverPort(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("BACKEND_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
}

func TestLoadLogLevels(t *testing.T) {
	tests := []struct {
		value   string
		want    slog.Level
		wantErr bool
	}{
		{value: "debug", want: slog.LevelDebug},
		{value: "info", want: slog.LevelInfo},
		{value: "warn", want: slog.LevelWarn},
		{value: "warning", want: slog.LevelWarn},
		{value: "error", want: slog.LevelError},
		{value: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			t.Setenv("LOG_LEVEL", tt.value)

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "logfmt")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestWatchDisabled(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("WATCH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.WatchEnabled)
}
