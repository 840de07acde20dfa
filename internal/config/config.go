package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	config := GetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/framesafe/")
	viper.AddConfigPath("$HOME/.framesafe/")

	viper.SetEnvPrefix("FRAMESAFE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	// A missing config file is not an error; defaults apply.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates the loaded configuration. Unknown masking
// strategy names are deliberately not rejected here; the masker falls back
// to redact at runtime.
func validateConfig(config *Config) error {
	if config.Masking.PartialRatio < 0 || config.Masking.PartialRatio > 1 {
		return fmt.Errorf("invalid partial masking ratio: %g (must be in [0,1])", config.Masking.PartialRatio)
	}

	if config.Audit.RetentionDays <= 0 {
		return fmt.Errorf("invalid audit retention: %d days", config.Audit.RetentionDays)
	}

	if config.Audit.Backend != "memory" && config.Audit.Backend != "postgres" {
		return fmt.Errorf("invalid audit backend: %s (must be memory or postgres)", config.Audit.Backend)
	}
	if config.Audit.Backend == "postgres" && config.Audit.Postgres.DatabaseURL == "" {
		return fmt.Errorf("audit backend postgres requires a database_url")
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}

// Watch starts watching the configuration file for changes and invokes the
// callback with each valid new configuration.
func Watch(callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := GetDefaults()
		if err := viper.Unmarshal(newConfig); err != nil {
			return
		}
		if err := validateConfig(newConfig); err != nil {
			return
		}
		callback(newConfig)
	})

	return nil
}
