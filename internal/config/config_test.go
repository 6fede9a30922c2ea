package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.Analysis.ConversationTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.QuickThreshold)
	assert.Equal(t, time.Hour, cfg.Analysis.DelayedThreshold)
	assert.InDelta(t, 0.4, cfg.Analysis.BalanceLow, 1e-9)
	assert.InDelta(t, 0.6, cfg.Analysis.BalanceHigh, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "commtrace", cfg.Observability.ServiceName)
}

func TestLoadWithFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  http_port: 8088
analysis:
  quick_threshold: 2m
  balance_low: 0.3
cache:
  enabled: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.QuickThreshold)
	assert.InDelta(t, 0.3, cfg.Analysis.BalanceLow, 1e-9)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 8088\n"), 0o600))
	t.Setenv("SERVER_HTTP_PORT", "7001")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadWithFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, make([]byte, maxConfigFileSize+1), 0o600))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Analysis.BalanceLow = 0.7
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Analysis.QuickThreshold = 2 * time.Hour
	assert.Error(t, cfg.Validate())
}
