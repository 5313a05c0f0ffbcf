package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	key := "VISREG_TEST_ENV"
	fallback := "default"

	_ = os.Unsetenv(key)
	if got := envOr(key, fallback); got != fallback {
		t.Errorf("envOr() = %v, want %v", got, fallback)
	}

	val := "set"
	_ = os.Setenv(key, val)
	defer os.Unsetenv(key)
	if got := envOr(key, fallback); got != val {
		t.Errorf("envOr() = %v, want %v", got, val)
	}
}

func TestEnvIntOr(t *testing.T) {
	key := "VISREG_TEST_INT"
	fallback := 42

	_ = os.Unsetenv(key)
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}

	_ = os.Setenv(key, "100")
	if got := envIntOr(key, fallback); got != 100 {
		t.Errorf("envIntOr() = %v, want %v", got, 100)
	}

	_ = os.Setenv(key, "invalid")
	if got := envIntOr(key, fallback); got != fallback {
		t.Errorf("envIntOr() = %v, want %v", got, fallback)
	}
}

func TestEnvBoolOr(t *testing.T) {
	key := "VISREG_TEST_BOOL"
	fallback := true

	_ = os.Unsetenv(key)
	if got := envBoolOr(key, fallback); got != fallback {
		t.Errorf("envBoolOr() = %v, want %v", got, fallback)
	}

	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"yes", true}, {"on", true},
		{"0", false}, {"false", false}, {"no", false}, {"off", false},
		{"garbage", true}, // should return fallback
	}

	for _, tt := range tests {
		_ = os.Setenv(key, tt.val)
		if got := envBoolOr(key, fallback); got != tt.want {
			t.Errorf("envBoolOr(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "(none)"},
		{"short", "***"},
		{"percy_web_abc123def456", "perc...f456"},
	}

	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	_ = os.Unsetenv("BASE_URL")
	_ = os.Unsetenv("PERCY_TOKEN")
	_ = os.Unsetenv("PERCY_SERVER_ADDRESS")
	_ = os.Unsetenv("VISREG_PORT")
	_ = os.Unsetenv("VISREG_CONFIG")
	_ = os.Setenv("VISREG_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	defer os.Unsetenv("VISREG_CONFIG")

	cfg := Load()
	if cfg.PercyAddress != "http://localhost:5338" {
		t.Errorf("default PercyAddress = %v, want http://localhost:5338", cfg.PercyAddress)
	}
	if cfg.Port != "9878" {
		t.Errorf("default Port = %v, want 9878", cfg.Port)
	}
	if cfg.Bind != "127.0.0.1" {
		t.Errorf("default Bind = %v, want 127.0.0.1", cfg.Bind)
	}
	if cfg.ActionTimeout != 15*time.Second {
		t.Errorf("default ActionTimeout = %v, want 15s", cfg.ActionTimeout)
	}
	if cfg.SettleDelay != 500*time.Millisecond {
		t.Errorf("default SettleDelay = %v, want 500ms", cfg.SettleDelay)
	}
	if cfg.PercyEnabled() {
		t.Error("PercyEnabled() = true without PERCY_TOKEN")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	_ = os.Setenv("VISREG_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	_ = os.Setenv("BASE_URL", "https://staging.example.com")
	_ = os.Setenv("PERCY_TOKEN", "tok")
	_ = os.Setenv("VISREG_CONCURRENCY", "2")
	defer func() {
		os.Unsetenv("VISREG_CONFIG")
		os.Unsetenv("BASE_URL")
		os.Unsetenv("PERCY_TOKEN")
		os.Unsetenv("VISREG_CONCURRENCY")
	}()

	cfg := Load()
	if cfg.BaseURL != "https://staging.example.com" {
		t.Errorf("env BaseURL = %v, want https://staging.example.com", cfg.BaseURL)
	}
	if !cfg.PercyEnabled() {
		t.Error("PercyEnabled() = false with PERCY_TOKEN set")
	}
	if cfg.Concurrency != 2 {
		t.Errorf("env Concurrency = %v, want 2", cfg.Concurrency)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	fc := DefaultFileConfig()
	if fc.Port != "9878" {
		t.Errorf("DefaultFileConfig.Port = %v, want 9878", fc.Port)
	}
	if *fc.Headless != true {
		t.Errorf("DefaultFileConfig.Headless = %v, want true", *fc.Headless)
	}
	if fc.SettleMs != 500 {
		t.Errorf("DefaultFileConfig.SettleMs = %v, want 500", fc.SettleMs)
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	_ = os.Setenv("VISREG_CONFIG", configPath)
	defer os.Unsetenv("VISREG_CONFIG")

	configData := `{
		"baseUrl": "http://app.internal:8080",
		"port": "8888",
		"headless": false,
		"timeoutSec": 60,
		"settleMs": 250
	}`
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.BaseURL != "http://app.internal:8080" {
		t.Errorf("file BaseURL = %v, want http://app.internal:8080", cfg.BaseURL)
	}
	if cfg.Port != "8888" {
		t.Errorf("file Port = %v, want 8888", cfg.Port)
	}
	if cfg.Headless != false {
		t.Errorf("file Headless = %v, want false", cfg.Headless)
	}
	if cfg.ActionTimeout != 60*time.Second {
		t.Errorf("file ActionTimeout = %v, want 60s", cfg.ActionTimeout)
	}
	if cfg.SettleDelay != 250*time.Millisecond {
		t.Errorf("file SettleDelay = %v, want 250ms", cfg.SettleDelay)
	}
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	_ = os.Setenv("VISREG_CONFIG", configPath)
	_ = os.Setenv("VISREG_PORT", "7777")
	defer func() {
		os.Unsetenv("VISREG_CONFIG")
		os.Unsetenv("VISREG_PORT")
	}()

	if err := os.WriteFile(configPath, []byte(`{"port": "8888"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Load()
	if cfg.Port != "7777" {
		t.Errorf("Port = %v, want env value 7777 over file value", cfg.Port)
	}
}
