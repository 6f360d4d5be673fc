package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 1, cfg.API.Retries)
	assert.Equal(t, 120*time.Second, cfg.PollInterval())
	assert.Equal(t, "default", cfg.Display.Theme)
}

func TestLoadConfigReadsFileAndTrimsBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api:\n  base_url: https://api.example.com/\n  retries: 3\ndisplay:\n  poll_interval_sec: 15\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3, cfg.API.Retries)
	assert.Equal(t, 15*time.Second, cfg.PollInterval())
	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.API.TimeoutSec)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("VANTA_API_BASE_URL", "http://staging:9000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://staging:9000", cfg.API.BaseURL)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.API.BaseURL = "http://saved:1234"
	cfg.Display.Theme = "dark"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:1234", loaded.API.BaseURL)
	assert.Equal(t, "dark", loaded.Display.Theme)
}
