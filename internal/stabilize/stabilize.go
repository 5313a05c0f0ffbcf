// Package stabilize freezes the visual state of a page before a snapshot
// is captured: animations stopped, volatile elements hidden, images and
// fonts settled. Diffs should show real regressions, not clocks ticking.
package stabilize

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// FreezeAnimationsCSS is injected to force-disable all CSS animations and
// transitions. The style tag is marked so repeat injections are no-ops.
const FreezeAnimationsCSS = `
(function() {
  if (document.querySelector('style[data-visreg="no-animations"]')) return;
  const style = document.createElement('style');
  style.setAttribute('data-visreg', 'no-animations');
  style.textContent = '*, *::before, *::after { animation: none !important; animation-duration: 0s !important; transition: none !important; transition-duration: 0s !important; scroll-behavior: auto !important; caret-color: transparent !important; }';
  (document.head || document.documentElement).appendChild(style);
})();
`

// DefaultHideSelectors matches elements whose content changes between page
// loads: timestamps, live counters, anything marked dynamic.
var DefaultHideSelectors = []string{
	".timestamp",
	"[data-timestamp]",
	".live-count",
	".real-time-counter",
	`[data-dynamic="true"]`,
}

// DefaultFreezeSelectors matches elements that self-animate and should be
// pinned to their current frame rather than hidden.
var DefaultFreezeSelectors = []string{
	".rotating-banner",
	".carousel-auto",
}

// Inject adds a persistent script (via CDP) that disables CSS animations on
// every document load, and emulates prefers-reduced-motion so pages that
// honor it stop animating on their own.
func Inject(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(FreezeAnimationsCSS).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetEmulatedMedia().
				WithFeatures([]*emulation.MediaFeature{
					{Name: "prefers-reduced-motion", Value: "reduce"},
				}).Do(ctx)
		}),
	)
}

// Once runs the animation-freezing CSS on the current page (one-shot, for
// tabs that were navigated before Inject ran).
func Once(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Evaluate(FreezeAnimationsCSS, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetEmulatedMedia().
				WithFeatures([]*emulation.MediaFeature{
					{Name: "prefers-reduced-motion", Value: "reduce"},
				}).Do(ctx)
		}),
	)
}

// Hide sets display:none on every element matching the given selectors.
// Invalid selectors are skipped so one bad entry cannot spoil the batch.
func Hide(ctx context.Context, selectors ...string) error {
	if len(selectors) == 0 {
		return nil
	}
	return chromedp.Run(ctx, chromedp.Evaluate(HideScript(selectors), nil))
}

// Freeze pins matching elements mid-animation without removing them from
// layout. Used for banners and carousels that should stay visible.
func Freeze(ctx context.Context, selectors ...string) error {
	if len(selectors) == 0 {
		return nil
	}
	return chromedp.Run(ctx, chromedp.Evaluate(FreezeScript(selectors), nil))
}

// HideScript builds the JS that hides all elements matching selectors.
func HideScript(selectors []string) string {
	sel, _ := json.Marshal(selectors)
	return `(function() {
  const selectors = ` + string(sel) + `;
  for (const s of selectors) {
    try {
      document.querySelectorAll(s).forEach(el => { el.style.display = 'none'; });
    } catch (e) {}
  }
})();`
}

// FreezeScript builds the JS that stops animation on matching elements.
func FreezeScript(selectors []string) string {
	sel, _ := json.Marshal(selectors)
	return `(function() {
  const selectors = ` + string(sel) + `;
  for (const s of selectors) {
    try {
      document.querySelectorAll(s).forEach(el => {
        el.style.animation = 'none';
        el.style.transition = 'none';
        el.style.animationPlayState = 'paused';
      });
    } catch (e) {}
  }
})();`
}
