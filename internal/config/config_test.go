package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.App.ListenAddr)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, 15*time.Minute, cfg.Checkout.PollDeadline)
	assert.Equal(t, 10, cfg.History.DisplayLimit)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  listen: ":9090"
  loglevel: debug
backend:
  url: http://backend:8080
  token: tok-123
checkout:
  interval: 2s
  deadline: 5m
history:
  limit: 25
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.ListenAddr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "http://backend:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "tok-123", cfg.Backend.Token)
	assert.Equal(t, 2*time.Second, cfg.Checkout.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Checkout.PollDeadline)
	assert.Equal(t, 25, cfg.History.DisplayLimit)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  url: http://from-file\n"), 0o600))

	t.Setenv("POS_BACKEND_URL", "http://from-env:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8080", cfg.Backend.BaseURL)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.App.ListenAddr)
}
