package stabilize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Plan describes the stabilization steps for one page. A zero Plan only
// waits for document readiness; DefaultPlan covers the usual suspects.
type Plan struct {
	Hide       []string
	Freeze     []string
	WaitImages bool
	WaitFonts  bool
	Settle     time.Duration
}

// DefaultPlan hides timestamps and live counters, freezes auto-rotating
// banners, and waits for images and fonts before a half-second settle.
func DefaultPlan() Plan {
	return Plan{
		Hide:       DefaultHideSelectors,
		Freeze:     DefaultFreezeSelectors,
		WaitImages: true,
		WaitFonts:  true,
		Settle:     500 * time.Millisecond,
	}
}

// Apply runs the plan against the current page: readiness and asset waits
// first, then freezing and hiding, then a settle sleep so the final layout
// paints. Asset waits that time out are logged and tolerated; a page with
// one broken image should still produce a snapshot.
func (p Plan) Apply(ctx context.Context) error {
	if err := WaitReady(ctx, DefaultReadyWait); err != nil {
		if !errors.Is(err, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("wait ready: %w", err)
		}
		slog.Warn("page never reached readyState complete, proceeding")
	}

	if p.WaitImages {
		if err := WaitImages(ctx, DefaultImageWait); err != nil {
			if !errors.Is(err, chromedp.ErrPollingTimeout) {
				return fmt.Errorf("wait images: %w", err)
			}
			slog.Warn("images still loading after wait, proceeding")
		}
	}

	if p.WaitFonts {
		if err := WaitFonts(ctx, DefaultFontWait); err != nil {
			if !errors.Is(err, chromedp.ErrPollingTimeout) {
				return fmt.Errorf("wait fonts: %w", err)
			}
			slog.Warn("fonts still loading after wait, proceeding")
		}
	}

	if err := Once(ctx); err != nil {
		return fmt.Errorf("freeze animations: %w", err)
	}
	if err := Freeze(ctx, p.Freeze...); err != nil {
		return fmt.Errorf("freeze elements: %w", err)
	}
	if err := Hide(ctx, p.Hide...); err != nil {
		return fmt.Errorf("hide elements: %w", err)
	}

	if p.Settle > 0 {
		if err := chromedp.Run(ctx, chromedp.Sleep(p.Settle)); err != nil {
			return fmt.Errorf("settle: %w", err)
		}
	}

	return nil
}
