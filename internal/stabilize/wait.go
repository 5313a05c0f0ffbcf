package stabilize

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// Polling intervals mirror a human-paced retry loop: fast enough to not
	// add noticeable latency, slow enough to not hammer the renderer.
	pollInterval = 500 * time.Millisecond

	DefaultImageWait = 10 * time.Second
	DefaultFontWait  = 5 * time.Second
	DefaultReadyWait = 10 * time.Second
	DefaultQuietWait = 5 * time.Second
)

// WaitReady blocks until document.readyState reaches "complete".
func WaitReady(ctx context.Context, timeout time.Duration) error {
	return poll(ctx, `document.readyState === 'complete'`, timeout)
}

// WaitImages blocks until every <img> on the page has finished loading.
// A page with no images resolves immediately.
func WaitImages(ctx context.Context, timeout time.Duration) error {
	return poll(ctx, `Array.from(document.images).every(img => img.complete)`, timeout)
}

// WaitFonts blocks until the CSS Font Loading API reports all fonts loaded.
// Browsers without the API resolve immediately.
func WaitFonts(ctx context.Context, timeout time.Duration) error {
	return poll(ctx, `!document.fonts || document.fonts.status === 'loaded'`, timeout)
}

// WaitQuiet blocks until in-flight jQuery requests drain. Pages without
// jQuery resolve immediately.
func WaitQuiet(ctx context.Context, timeout time.Duration) error {
	return poll(ctx, `(typeof jQuery === 'undefined') || (jQuery.active === 0)`, timeout)
}

func poll(ctx context.Context, expr string, timeout time.Duration) error {
	return chromedp.Run(ctx,
		chromedp.Poll(expr, nil,
			chromedp.WithPollingTimeout(timeout),
			chromedp.WithPollingInterval(pollInterval),
		),
	)
}
