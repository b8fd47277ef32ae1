package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

targets:
  local:
    backend: "memory"
    mode: "read-write"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if len(cfg.Targets) != 1 {
		t.Fatalf("Expected 1 target, got %d", len(cfg.Targets))
	}
	if cfg.Targets["local"].Backend != "memory" {
		t.Errorf("Expected memory backend, got %q", cfg.Targets["local"].Backend)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a temporary directory with a non-existent config file path
	// so the user's config from ~/.config/strata/ is never picked up.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	// Verify defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if _, ok := cfg.Targets["local"]; !ok {
		t.Errorf("Expected a default 'local' target, got %v", cfg.Targets)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_MultipleTargets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
targets:
  scratch:
    backend: "memory"
    mode: "create"
  durable:
    backend: "badger"
    mode: "read-write"
    badger:
      path: "` + filepath.Join(tmpDir, "db") + `"
  archive:
    backend: "s3"
    mode: "read-only"
    s3:
      bucket: "results"
      region: "eu-west-1"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Targets) != 3 {
		t.Fatalf("Expected 3 targets, got %d", len(cfg.Targets))
	}
	if cfg.Targets["archive"].S3.Region != "eu-west-1" {
		t.Errorf("Expected region 'eu-west-1', got %q", cfg.Targets["archive"].S3.Region)
	}
	if cfg.Targets["scratch"].Mode != "create" {
		t.Errorf("Expected mode 'create', got %q", cfg.Targets["scratch"].Mode)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// s3 backend without a bucket must fail validation.
	configContent := `
targets:
  archive:
    backend: "s3"
    mode: "read-only"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Expected bucket error, got: %v", err)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join("strata", "config.yaml")) {
		t.Errorf("Unexpected default config path: %s", path)
	}
}
