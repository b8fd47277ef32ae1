package config

import (
	"testing"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
}

func TestApplyDefaults_LogLevelNormalized(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_DefaultTarget(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	target, ok := cfg.Targets["local"]
	if !ok {
		t.Fatalf("Expected default 'local' target, got %v", cfg.Targets)
	}
	if target.Backend != "memory" {
		t.Errorf("Expected memory backend, got %q", target.Backend)
	}
	if target.Mode != "read-write" {
		t.Errorf("Expected read-write mode, got %q", target.Mode)
	}
}

func TestApplyDefaults_BadgerPath(t *testing.T) {
	cfg := &Config{
		Targets: map[string]TargetConfig{
			"durable": {Backend: "badger", Mode: "read-write"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Targets["durable"].Badger.Path != "/var/lib/strata/durable" {
		t.Errorf("Expected per-target badger path, got %q", cfg.Targets["durable"].Badger.Path)
	}
}

func TestApplyDefaults_S3Region(t *testing.T) {
	cfg := &Config{
		Targets: map[string]TargetConfig{
			"archive": {Backend: "s3", Mode: "read-only", S3: S3TargetConfig{Bucket: "b"}},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Targets["archive"].S3.Region != "us-east-1" {
		t.Errorf("Expected default region 'us-east-1', got %q", cfg.Targets["archive"].S3.Region)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "ERROR", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Port: 8080},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "ERROR" || cfg.Logging.Format != "json" {
		t.Errorf("Explicit logging config was overwritten: %+v", cfg.Logging)
	}
	if cfg.Metrics.Port != 8080 {
		t.Errorf("Explicit metrics port was overwritten: %d", cfg.Metrics.Port)
	}
}
