package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Strata configuration.
//
// This structure captures all configurable aspects of the tool
// including:
//   - Logging configuration
//   - Metrics exposure
//   - Named storage targets (backend selection and backend-specific
//     configuration)
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STRATA_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Target Configuration Pattern:
// Each backend implementation defines its own configuration type. A
// TargetConfig contains one section per backend kind (badger, s3) and
// only the section matching the selected Backend is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls the Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Targets maps target names to their storage configuration
	Targets map[string]TargetConfig `mapstructure:"targets" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Port is the HTTP port for the /metrics endpoint
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// TargetConfig defines one named storage target.
//
// The Backend field determines which backend implementation is used.
// Only the corresponding backend-specific section is read.
type TargetConfig struct {
	// Backend specifies which backend implementation to use
	// Valid values: memory, badger, s3
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger s3"`

	// Mode is the access mode handlers over this target open with
	// Valid values: read-only, read-write, create
	Mode string `mapstructure:"mode" validate:"required,oneof=read-only read-write create"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Backend = "badger"
	Badger BadgerTargetConfig `mapstructure:"badger"`

	// S3 contains S3-specific configuration
	// Only used when Backend = "s3"
	S3 S3TargetConfig `mapstructure:"s3"`
}

// BadgerTargetConfig configures a badger-backed target.
type BadgerTargetConfig struct {
	// Path is the database directory
	Path string `mapstructure:"path"`
}

// S3TargetConfig configures an S3-backed target.
type S3TargetConfig struct {
	// Bucket is the bucket name. It must already exist.
	Bucket string `mapstructure:"bucket"`

	// Region is the AWS region
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint, for S3-compatible services
	// (MinIO, Localstack, Cubbit DS3, etc.)
	Endpoint string `mapstructure:"endpoint"`

	// KeyPrefix is an optional prefix for every object key
	KeyPrefix string `mapstructure:"key_prefix"`

	// AccessKeyID and SecretAccessKey are static credentials. When
	// empty the default AWS credential chain applies.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// UsePathStyle forces path-style addressing (required by most
	// S3-compatible services)
	UsePathStyle bool `mapstructure:"use_path_style"`

	// RequestTimeout bounds each S3 request (0 = unbounded)
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (STRATA_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config
// file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the STRATA_ prefix and underscores.
	// Example: STRATA_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/strata/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		// A named file that does not exist is also acceptable.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "strata")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "strata")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
