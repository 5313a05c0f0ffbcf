package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
)

func TestParseRunFlags(t *testing.T) {
	f, err := parseRunFlags([]string{"-suite", "custom.yaml", "-dashboard", "-require-percy"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.suitePath != "custom.yaml" {
		t.Errorf("suitePath = %q", f.suitePath)
	}
	if !f.dashboard || !f.requirePercy {
		t.Errorf("flags = %+v", f)
	}

	if _, err := parseRunFlags([]string{"-suite"}); err == nil {
		t.Error("-suite without value should fail")
	}
	if _, err := parseRunFlags([]string{"-bogus"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if f, err := parseRunFlags(nil); err != nil || f.dashboard {
		t.Errorf("empty args: %+v, %v", f, err)
	}
}

func TestDefaultSnapshotName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/pricing/", "example.com/pricing"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
		{"http://127.0.0.1:8000/checkout", "127.0.0.1:8000/checkout"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := defaultSnapshotName(tt.raw); got != tt.want {
			t.Errorf("defaultSnapshotName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLoadSpecFallsBackToBuiltin(t *testing.T) {
	cfg := &config.RuntimeConfig{SuitePath: filepath.Join(t.TempDir(), "nope.yaml")}

	spec, err := loadSpec(cfg)
	if err != nil {
		t.Fatalf("missing file should fall back, got %v", err)
	}
	if len(spec.Pages) == 0 || len(spec.Viewports) == 0 {
		t.Error("built-in suite is empty")
	}
}

func TestLoadSpecSurfacesBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visreg.yaml")
	if err := os.WriteFile(path, []byte("viewports: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.RuntimeConfig{SuitePath: path}

	if _, err := loadSpec(cfg); err == nil {
		t.Error("broken suite file should not fall back to the built-in one")
	}
}

func TestFindChromeExplicitBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "chrome")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.RuntimeConfig{ChromeBinary: bin}
	if got := findChrome(cfg); got != bin {
		t.Errorf("findChrome = %q, want %q", got, bin)
	}

	cfg.ChromeBinary = filepath.Join(t.TempDir(), "missing")
	if got := findChrome(cfg); got != "" {
		t.Errorf("missing explicit binary should not resolve, got %q", got)
	}
}
