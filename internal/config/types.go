package config

import (
	"github.com/framesafe/framesafe/internal/audit"
	"github.com/framesafe/framesafe/internal/cache"
	"github.com/framesafe/framesafe/internal/filter"
	"github.com/framesafe/framesafe/internal/masking"
)

// Config represents the main configuration structure.
type Config struct {
	PII     PIIConfig      `yaml:"pii" mapstructure:"pii"`
	Masking masking.Config `yaml:"masking" mapstructure:"masking"`
	Filter  filter.Config  `yaml:"filter" mapstructure:"filter"`
	Audit   AuditConfig    `yaml:"audit" mapstructure:"audit"`
	Cache   cache.Config   `yaml:"cache" mapstructure:"cache"`
	Logging LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// PIIConfig selects the active recognizers.
type PIIConfig struct {
	// Detectors lists recognizer names to enable; "all" enables every one.
	Detectors []string `yaml:"detectors" mapstructure:"detectors"`
}

// AuditConfig wraps the auditor policy with a storage backend selection.
type AuditConfig struct {
	audit.Config `yaml:",inline" mapstructure:",squash"`
	// Backend is "memory" or "postgres".
	Backend  string               `yaml:"backend" mapstructure:"backend"`
	Postgres audit.PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults.
func GetDefaults() *Config {
	return &Config{
		PII: PIIConfig{
			Detectors: []string{"all"},
		},
		Masking: masking.DefaultConfig(),
		Filter:  filter.DefaultConfig(),
		Audit: AuditConfig{
			Config:  audit.DefaultConfig(),
			Backend: "memory",
		},
		Cache: cache.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
