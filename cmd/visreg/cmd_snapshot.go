package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/browser"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/percy"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/report"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/stabilize"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

var oneOffViewport = browser.Viewport{Name: "Desktop Full HD", Width: 1920, Height: 1080}

// runSnapshot takes a single stabilized snapshot of one URL. With an agent
// running it submits like a suite job; without one it saves a local
// screenshot so the command is still useful for eyeballing a page.
func runSnapshot(cfg *config.RuntimeConfig, args []string) int {
	var rawURL, name string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-name" || args[i] == "--name":
			if i+1 >= len(args) {
				fatal("-name needs a value")
			}
			i++
			name = args[i]
		case strings.HasPrefix(args[i], "-"):
			fatal("unknown snapshot flag %q", args[i])
		case rawURL != "":
			fatal("expected exactly one URL")
		default:
			rawURL = args[i]
		}
	}
	if rawURL == "" {
		fatal("Usage: visreg snapshot <url> [-name NAME]")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	if name == "" {
		name = defaultSnapshotName(rawURL)
	}

	if err := os.MkdirAll(cfg.ArtifactsDir, 0755); err != nil {
		slog.Error("cannot create artifacts dir", "dir", cfg.ArtifactsDir, "err", err)
		return 1
	}

	sess, err := browser.Launch(cfg)
	if err != nil {
		slog.Error("chrome", "err", err)
		return 1
	}
	defer sess.Close()

	pool := browser.NewPool(sess, 1, tabSetup(cfg))
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel, func() {
		pool.Close()
		sess.Close()
	})

	pc := percy.New(cfg.PercyAddress, cfg.PercyToken)

	res := suite.Result{
		Page:       name,
		Viewport:   oneOffViewport.Name,
		Dimensions: oneOffViewport.String(),
		Name:       name,
		Started:    time.Now(),
	}

	err = pool.With(ctx, func(tab *browser.Tab) error {
		tabCtx := tab.Context()
		if err := browser.SetViewport(tabCtx, oneOffViewport); err != nil {
			return err
		}
		pg := page.New(tabCtx, cfg.ActionTimeout, cfg.NavigateTimeout)
		if err := pg.Navigate(rawURL); err != nil {
			return err
		}

		plan := stabilize.DefaultPlan()
		plan.Settle = cfg.SettleDelay
		if err := plan.Apply(tabCtx); err != nil {
			return err
		}
		if err := pg.ScrollTop(); err != nil {
			return err
		}

		serr := pc.Snapshot(tabCtx, name, percy.Options{
			Widths:    []int{oneOffViewport.Width},
			MinHeight: oneOffViewport.Height,
		})
		if errors.Is(serr, percy.ErrDisabled) {
			shot := filepath.Join(cfg.ArtifactsDir, "screenshots", suite.Slug(name)+".png")
			if err := pg.FullScreenshot(shot); err != nil {
				return err
			}
			res.Screenshot = shot
			slog.Info("no agent, saved local screenshot", "path", shot)
		}
		return serr
	})

	res.Duration = time.Since(res.Started)
	switch {
	case err == nil:
		res.Status = suite.StatusOK
	case errors.Is(err, percy.ErrDisabled):
		res.Status = suite.StatusSkipped
	default:
		res.Status = suite.StatusFailed
		res.Error = err.Error()
	}

	run := &suite.Run{
		ID:        uuid.NewString(),
		Name:      petname.Generate(2, "-"),
		SuiteName: "one-off",
		BaseURL:   rawURL,
		Started:   res.Started,
		Total:     1,
	}
	run.Add(res)
	run.Finished = time.Now()

	if _, mdPath, werr := report.Write(cfg.ArtifactsDir, run); werr != nil {
		slog.Error("write report", "err", werr)
	} else {
		slog.Info("report written", "markdown", mdPath)
	}

	printSummary(run)
	if res.Status == suite.StatusFailed {
		return 1
	}
	return 0
}

// defaultSnapshotName turns a URL into a readable snapshot name:
// https://example.com/pricing/ becomes "example.com/pricing".
func defaultSnapshotName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	name := u.Host
	if p := strings.TrimRight(u.Path, "/"); p != "" {
		name += p
	}
	return name
}
