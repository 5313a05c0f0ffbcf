// Package browser owns the Chrome lifecycle for a run: launching (or
// attaching to) the browser, applying viewports, and pooling tabs so
// snapshot jobs can run concurrently.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
)

const startTimeout = 15 * time.Second

// Session is one running Chrome. Each run launches a fresh instance with a
// throwaway profile so no cookie, cache, or session-restore state can leak
// into a snapshot. With CDP_URL set it attaches to an existing browser
// instead.
type Session struct {
	cfg         *config.RuntimeConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	profileDir  string
	remote      bool
}

// Launch starts Chrome and waits for it to answer. A failed start gets one
// retry with a fresh profile; flaky first launches are common in CI.
func Launch(cfg *config.RuntimeConfig) (*Session, error) {
	if cfg.CdpURL != "" {
		slog.Info("attaching to Chrome", "url", cfg.CdpURL)
		allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cfg.CdpURL)
		ctx, cancel, err := start(allocCtx)
		if err != nil {
			allocCancel()
			return nil, fmt.Errorf("attach to %s: %w", cfg.CdpURL, err)
		}
		return &Session{cfg: cfg, allocCtx: allocCtx, allocCancel: allocCancel, ctx: ctx, cancel: cancel, remote: true}, nil
	}

	s, err := launchLocal(cfg)
	if err != nil {
		slog.Warn("Chrome startup failed, retrying once with a fresh profile", "err", err)
		s, err = launchLocal(cfg)
		if err != nil {
			return nil, fmt.Errorf("Chrome failed to start after retry: %w", err)
		}
		slog.Info("Chrome started on retry")
	}
	return s, nil
}

func launchLocal(cfg *config.RuntimeConfig) (*Session, error) {
	profileDir, err := os.MkdirTemp("", "visreg-chrome-")
	if err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	slog.Info("launching Chrome", "headless", cfg.Headless, "profile", profileDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), buildChromeOpts(cfg, profileDir)...)
	ctx, cancel, err := start(allocCtx)
	if err != nil {
		allocCancel()
		_ = os.RemoveAll(profileDir)
		return nil, err
	}

	return &Session{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		profileDir:  profileDir,
	}, nil
}

func start(allocCtx context.Context) (context.Context, context.CancelFunc, error) {
	bCtx, bCancel := chromedp.NewContext(allocCtx)

	startCtx, startDone := context.WithTimeout(context.Background(), startTimeout)
	defer startDone()

	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(bCtx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			bCancel()
			return nil, nil, err
		}
		return bCtx, bCancel, nil
	case <-startCtx.Done():
		bCancel()
		return nil, nil, fmt.Errorf("timed out after %s", startTimeout)
	}
}

// Context returns the browser-level context. Tab contexts derive from it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts the browser down and removes the throwaway profile. Safe to
// call more than once.
func (s *Session) Close() {
	if s.ctx != nil {
		_ = chromedp.Cancel(s.ctx)
		s.ctx = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	if s.profileDir != "" {
		_ = os.RemoveAll(s.profileDir)
		s.profileDir = ""
	}
}
