package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is the commented starter configuration written
// by InitConfig. Kept as a literal rather than marshalled from Config
// so the generated file carries comments and a readable layout.
const defaultConfigTemplate = `# Strata Configuration File
#
# Every value can be overridden with a STRATA_* environment variable,
# e.g. STRATA_LOGGING_LEVEL=DEBUG.

logging:
  # Log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Log format: text, json
  format: "text"

metrics:
  # Expose Prometheus metrics on /metrics
  enabled: false
  port: 9090

# Named storage targets. Each target binds a backend and an access
# mode; commands address targets by name.
targets:
  local:
    backend: "memory"
    # Access mode: read-only, read-write, create
    mode: "read-write"

  # durable:
  #   backend: "badger"
  #   mode: "read-write"
  #   badger:
  #     path: "/var/lib/strata/durable"

  # archive:
  #   backend: "s3"
  #   mode: "read-write"
  #   s3:
  #     bucket: "my-bucket"
  #     region: "us-east-1"
  #     key_prefix: "strata/"
  #     # endpoint: "http://localhost:4566"
  #     # use_path_style: true
`

// InitConfig writes a commented default configuration file to the
// default location and returns its path.
//
// Parameters:
//   - force: Overwrite an existing configuration file
//
// Returns an error if the file already exists (unless force is set) or
// cannot be written.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
