package config

import (
	"path/filepath"
	"strings"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values with sensible
// defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)

	// Add a default in-memory target if none configured.
	if len(cfg.Targets) == 0 {
		cfg.Targets = map[string]TargetConfig{
			"local": {
				Backend: "memory",
				Mode:    "read-write",
			},
		}
	}

	for name, target := range cfg.Targets {
		applyTargetDefaults(name, &target)
		cfg.Targets[name] = target
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyTargetDefaults sets per-target defaults.
func applyTargetDefaults(name string, cfg *TargetConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Mode == "" {
		cfg.Mode = "read-write"
	}
	if cfg.Backend == "badger" && cfg.Badger.Path == "" {
		cfg.Badger.Path = filepath.Join("/var/lib/strata", name)
	}
	if cfg.Backend == "s3" && cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}
