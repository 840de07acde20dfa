package config

import (
	"testing"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if cfg.Audit.Backend != "memory" {
		t.Errorf("Default audit backend should be memory, got %s", cfg.Audit.Backend)
	}
	if cfg.Audit.RetentionDays != 30 {
		t.Errorf("Default retention should be 30 days, got %d", cfg.Audit.RetentionDays)
	}
	if !cfg.Filter.PreventPIIStorage || !cfg.Filter.EnableRealTimeFiltering {
		t.Errorf("Default filter policy should be strict: %+v", cfg.Filter)
	}
	if len(cfg.PII.Detectors) != 1 || cfg.PII.Detectors[0] != "all" {
		t.Errorf("Default detectors should be [all], got %v", cfg.PII.Detectors)
	}
	if err := validateConfig(cfg); err != nil {
		t.Errorf("Defaults must validate: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("BadPartialRatio", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Masking.PartialRatio = 1.5
		if err := validateConfig(cfg); err == nil {
			t.Error("Expected error for ratio out of range")
		}
	})

	t.Run("BadRetention", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Audit.RetentionDays = 0
		if err := validateConfig(cfg); err == nil {
			t.Error("Expected error for zero retention")
		}
	})

	t.Run("BadBackend", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Audit.Backend = "sqlite"
		if err := validateConfig(cfg); err == nil {
			t.Error("Expected error for unknown backend")
		}
	})

	t.Run("PostgresRequiresURL", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Audit.Backend = "postgres"
		if err := validateConfig(cfg); err == nil {
			t.Error("Expected error for postgres backend without URL")
		}
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := GetDefaults()
		cfg.Logging.Level = "verbose"
		if err := validateConfig(cfg); err == nil {
			t.Error("Expected error for unknown log level")
		}
	})
}
