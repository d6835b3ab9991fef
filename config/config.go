// Package config loads library tuning from a YAML file. Host
// applications ship a config alongside the library so batching and
// logging behavior can be adjusted without a rebuild.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use human-readable
// values like "250ms" or "2s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// BatchConfig tunes the batching layer.
type BatchConfig struct {
	// FlushThreshold is the pending-message count that triggers an
	// automatic flush.
	FlushThreshold int `yaml:"flush_threshold"`
	// FlushInterval is the idle time after which pending messages are
	// flushed.
	FlushInterval Duration `yaml:"flush_interval"`
}

// StorageConfig selects and locates the key storage backend.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite", or "encrypted-file".
	Backend string `yaml:"backend"`
	// Path is the database file (sqlite) or data directory
	// (encrypted-file).
	Path string `yaml:"path"`
}

// Config is the top-level library configuration.
type Config struct {
	Batch    BatchConfig   `yaml:"batch"`
	Storage  StorageConfig `yaml:"storage"`
	LogLevel string        `yaml:"log_level"`
}

// Default returns a config with the library defaults: batching at 10
// messages / 100ms, in-memory storage, info-level logging.
func Default() *Config {
	return &Config{
		Batch: BatchConfig{
			FlushThreshold: 10,
			FlushInterval:  Duration(100 * time.Millisecond),
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config from path, applying defaults for any field
// left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the library cannot honor.
func (c *Config) Validate() error {
	if c.Batch.FlushThreshold < 1 {
		return fmt.Errorf("batch.flush_threshold must be at least 1, got %d", c.Batch.FlushThreshold)
	}
	if c.Batch.FlushInterval <= 0 {
		return fmt.Errorf("batch.flush_interval must be positive, got %s", c.Batch.FlushInterval.Std())
	}
	switch c.Storage.Backend {
	case "memory", "sqlite", "encrypted-file":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// ApplyLogLevel configures the standard logrus logger from the config.
func (c *Config) ApplyLogLevel() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	logrus.SetLevel(level)
	return nil
}
