package stabilize

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// AnalyticsBlockPatterns matches the tracking and analytics endpoints that
// inject cookie banners, chat bubbles, and experiment variants into pages.
// Blocking them keeps snapshots of third-party-instrumented sites stable.
var AnalyticsBlockPatterns = []string{
	// Google Analytics & Tag Manager
	"*google-analytics.com/*",
	"*googletagmanager.com/*",
	"*googletagservices.com/*",
	"*doubleclick.net/*",

	// Facebook/Meta tracking
	"*facebook.com/tr/*",
	"*connect.facebook.net/*",
	"*fbcdn.net/*/fbevents.js",

	// Session recording & product analytics
	"*segment.io/*",
	"*segment.com/*",
	"*mixpanel.com/*",
	"*amplitude.com/*",
	"*hotjar.com/*",
	"*fullstory.com/*",
	"*heapanalytics.com/*",
	"*mouseflow.com/*",
	"*luckyorange.com/*",
	"*crazyegg.com/*",
	"*newrelic.com/*",
	"*nr-data.net/*",

	// A/B testing (variant assignment makes pages non-deterministic)
	"*optimizely.com/*",
	"*visualwebsiteoptimizer.com/*",

	// Cookie consent banners
	"*cookielaw.org/*",
	"*cookiebot.com/*",
	"*onetrust.com/*",
	"*trustarc.com/*",
	"*usercentrics.com/*",

	// Tracking pixels
	"*pixel.gif*",
	"*tracking.gif*",
	"*analytics.gif*",
	"*/tr?*",
	"*/pixel?*",
	"*/collect?*",
}

// Block uses Network.setBlockedURLs to block requests by URL pattern.
// An empty list clears any previous blocking.
func Block(ctx context.Context, patterns []string) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(patterns) == 0 {
				return network.SetBlockedURLs([]string{}).Do(ctx)
			}
			return network.SetBlockedURLs(patterns).Do(ctx)
		}),
	)
}

// CombinePatterns merges multiple pattern lists, dropping duplicates.
func CombinePatterns(patterns ...[]string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, list := range patterns {
		for _, pattern := range list {
			if !seen[pattern] {
				seen[pattern] = true
				result = append(result, pattern)
			}
		}
	}

	return result
}
