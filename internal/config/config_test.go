package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "9090"
harvest_timeout = "2m"

[referential]
base_url = "https://hal.test"
timeout = "5s"
requests_per_second = 8.5

[concurrency]
enrich = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.HarvestTimeout.Duration)
	assert.Equal(t, "https://hal.test", cfg.Referential.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Referential.Timeout.Duration)
	assert.Equal(t, 8.5, cfg.Referential.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Concurrency.Enrich)
	// untouched keys keep their defaults
	assert.Equal(t, 10000, cfg.Referential.ChildRows)
	assert.Equal(t, 500, cfg.Log.ConsoleSize)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, `[server`))
	assert.ErrorContains(t, err, "failed to parse TOML")

	_, err = Load(writeConfig(t, "[referential]\ntimeout = \"soon\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[concurrency]\nenrich = 0\n"))
	assert.ErrorContains(t, err, "concurrency.enrich")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("HAL_BASE_URL", "https://mirror.test")
	t.Setenv("HAL_TIMEOUT", "12s")
	t.Setenv("ENRICH_WORKERS", "3")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "https://mirror.test", cfg.Referential.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.Referential.Timeout.Duration)
	assert.Equal(t, 3, cfg.Concurrency.Enrich)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("ENRICH_WORKERS", "many")
	assert.ErrorContains(t, Default().ApplyEnv(), "ENRICH_WORKERS")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
