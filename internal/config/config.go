package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RuntimeConfig holds everything a run needs: the target app, the Percy
// agent, Chrome launch knobs, timeouts, and dashboard settings. Values come
// from the environment first, then ~/.visreg/config.json, then defaults.
type RuntimeConfig struct {
	BaseURL          string
	PercyToken       string
	PercyAddress     string
	CdpURL           string
	ChromeBinary     string
	ChromeExtraFlags string
	Headless         bool
	NoSandbox        bool
	StateDir         string
	ArtifactsDir     string
	Screenshots      bool
	SuitePath        string
	Concurrency      int
	BlockAnalytics   bool
	Bind             string
	Port             string
	Token            string
	ActionTimeout    time.Duration
	NavigateTimeout  time.Duration
	SettleDelay      time.Duration
	ShutdownTimeout  time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

func (c *RuntimeConfig) ListenAddr() string {
	return c.Bind + ":" + c.Port
}

// PercyEnabled reports whether snapshot submission is active. Without a
// token the run still drives the browser and stabilizes pages, it just
// skips submission.
func (c *RuntimeConfig) PercyEnabled() bool {
	return c.PercyToken != ""
}

type FileConfig struct {
	BaseURL      string `json:"baseUrl,omitempty"`
	PercyAddress string `json:"percyAddress,omitempty"`
	Port         string `json:"port"`
	Token        string `json:"token,omitempty"`
	StateDir     string `json:"stateDir"`
	ArtifactsDir string `json:"artifactsDir,omitempty"`
	SuitePath    string `json:"suite,omitempty"`
	Headless     *bool  `json:"headless,omitempty"`
	Screenshots  bool   `json:"screenshots"`
	Concurrency  *int   `json:"concurrency,omitempty"`
	TimeoutSec   int    `json:"timeoutSec,omitempty"`
	NavigateSec  int    `json:"navigateSec,omitempty"`
	SettleMs     int    `json:"settleMs,omitempty"`
}

func Load() *RuntimeConfig {
	stateDir := envOr("VISREG_STATE_DIR", filepath.Join(homeDir(), ".visreg"))

	cfg := &RuntimeConfig{
		BaseURL:          os.Getenv("BASE_URL"),
		PercyToken:       os.Getenv("PERCY_TOKEN"),
		PercyAddress:     envOr("PERCY_SERVER_ADDRESS", "http://localhost:5338"),
		CdpURL:           os.Getenv("CDP_URL"),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		Headless:         envBoolOr("VISREG_HEADLESS", true),
		NoSandbox:        envBoolOr("VISREG_NO_SANDBOX", true),
		StateDir:         stateDir,
		ArtifactsDir:     envOr("VISREG_ARTIFACTS", filepath.Join(stateDir, "artifacts")),
		Screenshots:      envBoolOr("VISREG_SCREENSHOTS", false),
		SuitePath:        envOr("VISREG_SUITE", "visreg.yaml"),
		Concurrency:      envIntOr("VISREG_CONCURRENCY", 4),
		BlockAnalytics:   envBoolOr("VISREG_BLOCK_ANALYTICS", true),
		Bind:             envOr("VISREG_BIND", "127.0.0.1"),
		Port:             envOr("VISREG_PORT", "9878"),
		Token:            os.Getenv("VISREG_TOKEN"),
		ActionTimeout:    time.Duration(envIntOr("VISREG_TIMEOUT", 15)) * time.Second,
		NavigateTimeout:  time.Duration(envIntOr("VISREG_NAV_TIMEOUT", 30)) * time.Second,
		SettleDelay:      time.Duration(envIntOr("VISREG_SETTLE_MS", 500)) * time.Millisecond,
		ShutdownTimeout:  10 * time.Second,
	}

	configPath := envOr("VISREG_CONFIG", filepath.Join(homeDir(), ".visreg", "config.json"))

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg
	}

	if fc.BaseURL != "" && os.Getenv("BASE_URL") == "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.PercyAddress != "" && os.Getenv("PERCY_SERVER_ADDRESS") == "" {
		cfg.PercyAddress = fc.PercyAddress
	}
	if fc.Port != "" && os.Getenv("VISREG_PORT") == "" {
		cfg.Port = fc.Port
	}
	if fc.Token != "" && os.Getenv("VISREG_TOKEN") == "" {
		cfg.Token = fc.Token
	}
	if fc.StateDir != "" && os.Getenv("VISREG_STATE_DIR") == "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.ArtifactsDir != "" && os.Getenv("VISREG_ARTIFACTS") == "" {
		cfg.ArtifactsDir = fc.ArtifactsDir
	}
	if fc.SuitePath != "" && os.Getenv("VISREG_SUITE") == "" {
		cfg.SuitePath = fc.SuitePath
	}
	if fc.Headless != nil && os.Getenv("VISREG_HEADLESS") == "" {
		cfg.Headless = *fc.Headless
	}
	if fc.Screenshots && os.Getenv("VISREG_SCREENSHOTS") == "" {
		cfg.Screenshots = true
	}
	if fc.Concurrency != nil && os.Getenv("VISREG_CONCURRENCY") == "" {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.TimeoutSec > 0 && os.Getenv("VISREG_TIMEOUT") == "" {
		cfg.ActionTimeout = time.Duration(fc.TimeoutSec) * time.Second
	}
	if fc.NavigateSec > 0 && os.Getenv("VISREG_NAV_TIMEOUT") == "" {
		cfg.NavigateTimeout = time.Duration(fc.NavigateSec) * time.Second
	}
	if fc.SettleMs > 0 && os.Getenv("VISREG_SETTLE_MS") == "" {
		cfg.SettleDelay = time.Duration(fc.SettleMs) * time.Millisecond
	}

	return cfg
}

func DefaultFileConfig() FileConfig {
	h := true
	return FileConfig{
		Port:        "9878",
		StateDir:    filepath.Join(homeDir(), ".visreg"),
		Headless:    &h,
		Screenshots: false,
		TimeoutSec:  15,
		NavigateSec: 30,
		SettleMs:    500,
	}
}

func HandleConfigCommand(cfg *RuntimeConfig) {
	if len(os.Args) < 3 {
		fmt.Println("Usage: visreg config <command>")
		fmt.Println("Commands:")
		fmt.Println("  init    - Create default config file")
		fmt.Println("  show    - Show current configuration")
		return
	}

	switch os.Args[2] {
	case "init":
		configPath := filepath.Join(homeDir(), ".visreg", "config.json")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Config file already exists at %s\n", configPath)
			fmt.Print("Overwrite? (y/N): ")
			var response string
			_, _ = fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				return
			}
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			fmt.Printf("Error creating directory: %v\n", err)
			os.Exit(1)
		}

		fc := DefaultFileConfig()
		data, _ := json.MarshalIndent(fc, "", "  ")
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Config file created at %s\n", configPath)
		fmt.Println("\nExample pointing at a staging app:")
		fmt.Println(`{
  "baseUrl": "https://staging.example.com",
  "port": "9878",
  "headless": true,
  "stateDir": "` + fc.StateDir + `",
  "suite": "visreg.yaml"
}`)

	case "show":
		fmt.Println("Current configuration:")
		fmt.Printf("  Base URL:    %s\n", orFixture(cfg.BaseURL))
		fmt.Printf("  Percy:       %s (token %s)\n", cfg.PercyAddress, MaskToken(cfg.PercyToken))
		fmt.Printf("  CDP URL:     %s\n", cfg.CdpURL)
		fmt.Printf("  Suite:       %s\n", cfg.SuitePath)
		fmt.Printf("  State Dir:   %s\n", cfg.StateDir)
		fmt.Printf("  Artifacts:   %s\n", cfg.ArtifactsDir)
		fmt.Printf("  Headless:    %v\n", cfg.Headless)
		fmt.Printf("  Concurrency: %d\n", cfg.Concurrency)
		fmt.Printf("  Screenshots: %v\n", cfg.Screenshots)
		fmt.Printf("  Timeouts:    action=%v navigate=%v settle=%v\n", cfg.ActionTimeout, cfg.NavigateTimeout, cfg.SettleDelay)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[2])
		os.Exit(1)
	}
}

func orFixture(baseURL string) string {
	if baseURL == "" {
		return "(built-in fixture site)"
	}
	return baseURL
}

func MaskToken(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
