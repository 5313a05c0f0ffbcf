// Package site holds page objects for the application under test. Each
// page declares its locators as package variables and wraps the few
// actions the visual suite performs, so tests read like the flows they
// cover instead of raw selector plumbing.
package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/stabilize"
)

// LoadingOverlay covers a page until it finishes booting. Shared across
// pages; load waits block until it is gone. Pages without one pass
// through immediately.
var LoadingOverlay = page.ByCSS(".loading-overlay")

const (
	// loadSettle pads structural waits so late reflows finish painting.
	loadSettle = 500 * time.Millisecond
	// snapshotSettle is the final pause before a capture.
	snapshotSettle = 300 * time.Millisecond
	// probeTimeout bounds the boolean IsLoaded checks.
	probeTimeout = 5 * time.Second
)

// hideVolatile freezes animations and hides the elements that differ on
// every render: timestamps, live counters, rotating banners. Every page
// object runs this before capture.
func hideVolatile(ctx context.Context) error {
	if err := stabilize.Once(ctx); err != nil {
		return fmt.Errorf("freeze animations: %w", err)
	}
	if err := stabilize.Freeze(ctx, stabilize.DefaultFreezeSelectors...); err != nil {
		return fmt.Errorf("freeze elements: %w", err)
	}
	if err := stabilize.Hide(ctx, stabilize.DefaultHideSelectors...); err != nil {
		return fmt.Errorf("hide elements: %w", err)
	}
	return nil
}

// waitAssets blocks on images, fonts, and in-flight jQuery requests.
// Timeouts are tolerated; a page with one stuck image should still reach
// capture.
func waitAssets(ctx context.Context) error {
	if err := stabilize.WaitImages(ctx, stabilize.DefaultImageWait); err != nil && !errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("wait images: %w", err)
	}
	if err := stabilize.WaitFonts(ctx, stabilize.DefaultFontWait); err != nil && !errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("wait fonts: %w", err)
	}
	if err := stabilize.WaitQuiet(ctx, stabilize.DefaultQuietWait); err != nil && !errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("wait ajax: %w", err)
	}
	return nil
}
