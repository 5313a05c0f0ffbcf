package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fatih/color"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/browser"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/dashboard"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/fixture"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/percy"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/report"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/stabilize"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

type runFlags struct {
	suitePath    string
	dashboard    bool
	requirePercy bool
}

func parseRunFlags(args []string) (runFlags, error) {
	var f runFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-suite", "--suite":
			if i+1 >= len(args) {
				return f, fmt.Errorf("-suite needs a file path")
			}
			i++
			f.suitePath = args[i]
		case "-dashboard", "--dashboard":
			f.dashboard = true
		case "-require-percy", "--require-percy":
			f.requirePercy = true
		default:
			return f, fmt.Errorf("unknown run flag %q", args[i])
		}
	}
	return f, nil
}

// loadSpec reads the configured suite file, falling back to the built-in
// suite when the file simply does not exist. A file that exists but fails
// to parse or validate is always an error.
func loadSpec(cfg *config.RuntimeConfig) (*suite.Spec, error) {
	spec, err := suite.Load(cfg.SuitePath)
	if err == nil {
		return spec, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("suite file not found, using built-in suite", "path", cfg.SuitePath)
		return suite.Default(), nil
	}
	return nil, err
}

func runSuite(cfg *config.RuntimeConfig, args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fatal("%v", err)
	}
	if flags.suitePath != "" {
		cfg.SuitePath = flags.suitePath
	}

	spec, err := loadSpec(cfg)
	if err != nil {
		slog.Error("suite", "err", err)
		return 1
	}

	if err := os.MkdirAll(cfg.ArtifactsDir, 0755); err != nil {
		slog.Error("cannot create artifacts dir", "dir", cfg.ArtifactsDir, "err", err)
		return 1
	}

	// No target configured means snapshot the built-in storefront. That is
	// the demo path and also what CI smoke runs use.
	if cfg.BaseURL == "" {
		fix := fixture.New()
		addr, err := fix.Start("")
		if err != nil {
			slog.Error("fixture", "err", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = fix.Shutdown(sctx)
		}()
		cfg.BaseURL = "http://" + addr
		slog.Info("BASE_URL not set, using built-in fixture site", "url", cfg.BaseURL)
	}

	pc := percy.New(cfg.PercyAddress, cfg.PercyToken)
	if flags.requirePercy && !cfg.PercyEnabled() {
		slog.Error("-require-percy set but PERCY_TOKEN is empty")
		return 1
	}

	sess, err := browser.Launch(cfg)
	if err != nil {
		slog.Error("chrome", "err", err)
		return 1
	}
	defer sess.Close()

	pool := browser.NewPool(sess, cfg.Concurrency, tabSetup(cfg))
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel, func() {
		pool.Close()
		sess.Close()
	})

	// The agent usually starts in the same breath (`percy exec -- visreg`),
	// so give it a window to come up before the first snapshot races it.
	if cfg.PercyEnabled() {
		if err := awaitAgent(ctx, pc); err != nil {
			if flags.requirePercy {
				slog.Error("agent required but not reachable", "address", cfg.PercyAddress, "err", err)
				return 1
			}
			slog.Warn("agent not reachable, snapshots will be skipped", "address", cfg.PercyAddress, "err", err)
		}
	}

	runner, err := suite.NewRunner(cfg, spec, pool, pc)
	if err != nil {
		slog.Error("runner", "err", err)
		return 1
	}

	if flags.dashboard {
		dash := dashboard.New(&dashboard.Config{ArtifactsDir: cfg.ArtifactsDir})
		dash.SetPreviewSource(pool)
		runner.Observe(dash.Observer())

		mux := http.NewServeMux()
		dash.RegisterHandlers(mux)
		handler := dashboard.RequestIDMiddleware(
			dashboard.LoggingMiddleware(
				dashboard.AuthMiddleware(cfg, mux)))

		srv := &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("dashboard", "url", "http://"+cfg.ListenAddr())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("dashboard server", "err", err)
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	run, runErr := runner.Run(ctx)

	jsonPath, mdPath, err := report.Write(cfg.ArtifactsDir, run)
	if err != nil {
		slog.Error("write report", "err", err)
	} else {
		slog.Info("report written", "json", jsonPath, "markdown", mdPath)
	}

	printSummary(run)

	if runErr != nil {
		slog.Error("run", "err", runErr)
		return 1
	}
	if run.Failed() {
		return 1
	}
	return 0
}

// tabSetup prepares every fresh tab: animations frozen on each document
// load, and analytics endpoints blocked when configured.
func tabSetup(cfg *config.RuntimeConfig) browser.TabSetupFunc {
	return func(ctx context.Context) error {
		if err := stabilize.Inject(ctx); err != nil {
			return err
		}
		if cfg.BlockAnalytics {
			return stabilize.Block(ctx, stabilize.AnalyticsBlockPatterns)
		}
		return nil
	}
}

// awaitAgent polls the agent healthcheck until it answers or the backoff
// gives up. `percy exec` needs a few seconds to boot its asset server.
func awaitAgent(ctx context.Context, pc *percy.Client) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 15 * time.Second

	op := func() error {
		hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pc.Healthcheck(hctx)
	}
	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			slog.Debug("agent not ready", "retry", next.Round(time.Millisecond), "err", err)
		})
}

// setupSignalHandler cancels the run on the first interrupt so pending jobs
// stop and the report still gets written. A second interrupt kills Chrome
// and exits immediately.
func setupSignalHandler(cancel context.CancelFunc, force func()) {
	go func() {
		sig := make(chan os.Signal, 2)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Warn("interrupt: aborting pending jobs, report will still be written")
		cancel()
		<-sig
		slog.Warn("force shutdown requested")
		force()
		os.Exit(130)
	}()
}

func printSummary(run *suite.Run) {
	fmt.Println()
	if run.Failed() {
		color.New(color.FgHiRed, color.Bold).Printf("✗ run %s", run.Name)
	} else {
		color.New(color.FgGreen, color.Bold).Printf("✓ run %s", run.Name)
	}
	fmt.Printf("  %s\n", report.Summary(run))

	for _, res := range run.Results() {
		if res.Status != suite.StatusFailed {
			continue
		}
		color.New(color.FgHiRed).Printf("  FAIL %s", res.Name)
		fmt.Printf(": %s\n", res.Error)
		if res.Screenshot != "" {
			fmt.Printf("       screenshot: %s\n", res.Screenshot)
		}
	}
}
