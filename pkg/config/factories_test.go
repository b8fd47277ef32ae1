package config

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/strata/pkg/dataset"
)

func TestParseAccessMode(t *testing.T) {
	cases := []struct {
		in   string
		want dataset.AccessMode
	}{
		{"read-only", dataset.AccessReadOnly},
		{"read-write", dataset.AccessReadWrite},
		{"create", dataset.AccessCreate},
	}

	for _, tc := range cases {
		mode, err := ParseAccessMode(tc.in)
		if err != nil {
			t.Fatalf("ParseAccessMode(%q) failed: %v", tc.in, err)
		}
		if mode != tc.want {
			t.Errorf("ParseAccessMode(%q) = %v, want %v", tc.in, mode, tc.want)
		}
	}
}

func TestParseAccessMode_Unknown(t *testing.T) {
	if _, err := ParseAccessMode("append"); err == nil {
		t.Fatal("Expected error for unknown access mode")
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &TargetConfig{Backend: "memory", Mode: "read-write"}

	backend, mode, err := CreateBackend(ctx, "local", cfg)
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	defer func() { _ = backend.Close() }()

	if mode != dataset.AccessReadWrite {
		t.Errorf("Expected read-write mode, got %v", mode)
	}
}

func TestCreateBackend_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := &TargetConfig{
		Backend: "badger",
		Mode:    "create",
		Badger:  BadgerTargetConfig{Path: t.TempDir()},
	}

	backend, mode, err := CreateBackend(ctx, "durable", cfg)
	if err != nil {
		t.Fatalf("Failed to create badger backend: %v", err)
	}
	defer func() { _ = backend.Close() }()

	if mode != dataset.AccessCreate {
		t.Errorf("Expected create mode, got %v", mode)
	}
}

func TestCreateBackend_UnknownKind(t *testing.T) {
	ctx := context.Background()
	cfg := &TargetConfig{Backend: "postgres", Mode: "read-write"}

	_, _, err := CreateBackend(ctx, "local", cfg)
	if err == nil {
		t.Fatal("Expected error for unknown backend kind")
	}
	if !strings.Contains(err.Error(), "postgres") {
		t.Errorf("Expected error naming the backend, got: %v", err)
	}
}

func TestInitializeRegistry(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		Targets: map[string]TargetConfig{
			"scratch": {Backend: "memory", Mode: "read-write"},
			"staging": {Backend: "memory", Mode: "read-only"},
		},
	}
	ApplyDefaults(cfg)

	reg, err := InitializeRegistry(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to initialize registry: %v", err)
	}
	defer func() { _ = reg.CloseAll(ctx) }()

	if reg.Count() != 2 {
		t.Errorf("Expected 2 handlers, got %d", reg.Count())
	}
	h, err := reg.Get("staging")
	if err != nil {
		t.Fatalf("Failed to get handler: %v", err)
	}
	if h.Mode() != dataset.AccessReadOnly {
		t.Errorf("Expected read-only handler, got %v", h.Mode())
	}
}
