package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Batch.FlushThreshold)
	assert.Equal(t, Duration(100*time.Millisecond), cfg.Batch.FlushInterval)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "noise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
batch:
  flush_threshold: 25
  flush_interval: 250ms
storage:
  backend: sqlite
  path: /var/lib/noise/keys.db
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Batch.FlushThreshold)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Batch.FlushInterval)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/noise/keys.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Batch.FlushThreshold)
	assert.Equal(t, Duration(100*time.Millisecond), cfg.Batch.FlushInterval)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.Batch.FlushThreshold = 0 }},
		{"negative interval", func(c *Config) { c.Batch.FlushInterval = Duration(-time.Second) }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"bad log level", func(c *Config) { c.LogLevel = "shouting" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "batch: [not a map\n")
	_, err := Load(path)
	assert.Error(t, err)
}
