package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/percy"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

func pass(what, detail string) {
	fmt.Printf("%s  %-10s %s\n", color.New(color.FgGreen).Sprint("  OK"), what, detail)
}

func warn(what, detail string) {
	fmt.Printf("%s  %-10s %s\n", color.New(color.FgYellow).Sprint("WARN"), what, detail)
}

func fail(what, detail string) {
	fmt.Printf("%s  %-10s %s\n", color.New(color.FgHiRed).Sprint("FAIL"), what, detail)
}

// runDoctor checks everything a run needs and prints one line per check.
// WARN lines describe degraded-but-runnable states, only FAIL lines flip
// the exit code.
func runDoctor(cfg *config.RuntimeConfig) int {
	fmt.Printf("visreg %s doctor\n\n", version)
	failed := 0

	if cfg.CdpURL != "" {
		pass("chrome", "attach mode, CDP_URL="+cfg.CdpURL)
	} else if bin := findChrome(cfg); bin != "" {
		pass("chrome", bin)
	} else {
		failed++
		fail("chrome", "no Chrome or Chromium binary found, set CHROME_BINARY")
	}

	if !cfg.PercyEnabled() {
		warn("percy", "PERCY_TOKEN not set, snapshots will be skipped")
	} else {
		pc := percy.New(cfg.PercyAddress, cfg.PercyToken)
		hctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := pc.Healthcheck(hctx)
		cancel()
		if err != nil {
			failed++
			fail("percy", fmt.Sprintf("%v (start it with: percy exec -- visreg run)", err))
		} else {
			pass("percy", fmt.Sprintf("%s (token %s)", cfg.PercyAddress, config.MaskToken(cfg.PercyToken)))
		}
	}

	if cfg.BaseURL == "" {
		pass("target", "BASE_URL not set, built-in fixture site will be used")
	} else {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(cfg.BaseURL)
		switch {
		case err != nil:
			failed++
			fail("target", fmt.Sprintf("%s not reachable: %v", cfg.BaseURL, err))
		case resp.StatusCode >= 500:
			resp.Body.Close()
			failed++
			fail("target", fmt.Sprintf("%s answered %d", cfg.BaseURL, resp.StatusCode))
		default:
			resp.Body.Close()
			pass("target", fmt.Sprintf("%s answered %d", cfg.BaseURL, resp.StatusCode))
		}
	}

	spec, err := suite.Load(cfg.SuitePath)
	switch {
	case err == nil:
		jobs := spec.Jobs(cfg.SettleDelay)
		pass("suite", fmt.Sprintf("%s: %d pages x %d viewports = %d snapshots",
			cfg.SuitePath, len(spec.Pages), len(spec.Viewports), len(jobs)))
	case errors.Is(err, os.ErrNotExist):
		d := suite.Default()
		warn("suite", fmt.Sprintf("%s missing, built-in suite runs %d snapshots",
			cfg.SuitePath, len(d.Jobs(cfg.SettleDelay))))
	default:
		failed++
		fail("suite", err.Error())
	}

	if err := os.MkdirAll(cfg.ArtifactsDir, 0755); err != nil {
		failed++
		fail("artifacts", err.Error())
	} else {
		probe := filepath.Join(cfg.ArtifactsDir, ".doctor")
		if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
			failed++
			fail("artifacts", fmt.Sprintf("%s not writable: %v", cfg.ArtifactsDir, err))
		} else {
			_ = os.Remove(probe)
			pass("artifacts", cfg.ArtifactsDir)
		}
	}

	fmt.Println()
	if failed > 0 {
		color.New(color.FgHiRed).Printf("%d problem(s) found\n", failed)
		return 1
	}
	color.New(color.FgGreen).Println("all checks passed")
	return 0
}

// findChrome resolves the browser binary the same way the launcher will:
// explicit CHROME_BINARY first, then well-known names on PATH.
func findChrome(cfg *config.RuntimeConfig) string {
	if cfg.ChromeBinary != "" {
		if _, err := os.Stat(cfg.ChromeBinary); err == nil {
			return cfg.ChromeBinary
		}
		return ""
	}
	for _, name := range []string{
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell",
	} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	mac := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	if _, err := os.Stat(mac); err == nil {
		return mac
	}
	return ""
}
