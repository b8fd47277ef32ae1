package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestValidate_BadBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Targets["local"] = TargetConfig{Backend: "postgres", Mode: "read-write"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestValidate_BadMode(t *testing.T) {
	cfg := validConfig()
	cfg.Targets["local"] = TargetConfig{Backend: "memory", Mode: "append"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown access mode")
	}
}

func TestValidate_NoTargets(t *testing.T) {
	cfg := validConfig()
	cfg.Targets = map[string]TargetConfig{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for empty targets")
	}
	if !strings.Contains(err.Error(), "at least one target") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_BadgerRequiresPath(t *testing.T) {
	cfg := validConfig()
	cfg.Targets["durable"] = TargetConfig{Backend: "badger", Mode: "read-write"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for badger target without path")
	}
	if !strings.Contains(err.Error(), "path") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Targets["archive"] = TargetConfig{Backend: "s3", Mode: "read-only"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for s3 target without bucket")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_S3CredentialsSetTogether(t *testing.T) {
	cfg := validConfig()
	cfg.Targets["archive"] = TargetConfig{
		Backend: "s3",
		Mode:    "read-only",
		S3: S3TargetConfig{
			Bucket:      "results",
			AccessKeyID: "AKIA...",
		},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for access key without secret")
	}
	if !strings.Contains(err.Error(), "set together") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_MetricsPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out-of-range metrics port")
	}
}
