// Package page is a thin layer over chromedp for driving one tab: navigate,
// wait, click, type, scroll, capture. It is deliberately small; anything a
// specific site needs beyond this belongs in that site's page objects.
package page

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultNavTimeout = 30 * time.Second
)

// ErrTimeout wraps element waits that ran out of time. Callers that treat
// missing elements as a soft condition check with errors.Is.
var ErrTimeout = errors.New("timed out waiting for element")

// Page drives a single tab. The context must come from chromedp.NewContext
// (or the browser pool); every action runs under its own deadline.
type Page struct {
	ctx        context.Context
	timeout    time.Duration
	navTimeout time.Duration
}

func New(ctx context.Context, timeout, navTimeout time.Duration) *Page {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if navTimeout <= 0 {
		navTimeout = DefaultNavTimeout
	}
	return &Page{ctx: ctx, timeout: timeout, navTimeout: navTimeout}
}

// Context exposes the underlying tab context for stabilization and
// snapshot serialization, which speak CDP directly.
func (p *Page) Context() context.Context {
	return p.ctx
}

func (p *Page) run(within time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, within)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads the URL and waits for document.readyState to reach
// "complete" so captures never race the initial parse.
func (p *Page) Navigate(url string) error {
	err := p.run(p.navTimeout,
		chromedp.Navigate(url),
		chromedp.Poll(`document.readyState === 'complete'`, nil,
			chromedp.WithPollingTimeout(p.navTimeout),
			chromedp.WithPollingInterval(200*time.Millisecond),
		),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitVisible(l Locator) error {
	if err := p.run(p.timeout, chromedp.WaitVisible(l.Value, l.Opts()...)); err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

// WaitPresent waits for the element to exist in the DOM, visible or not.
func (p *Page) WaitPresent(l Locator) error {
	if err := p.run(p.timeout, chromedp.WaitReady(l.Value, l.Opts()...)); err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

// WaitGone waits for the element to be removed or hidden. Polls a JS
// predicate because chromedp node waits block forever on absent nodes.
func (p *Page) WaitGone(l Locator) error {
	err := p.run(p.timeout,
		chromedp.Poll(l.GoneExpr(), nil,
			chromedp.WithPollingTimeout(p.timeout),
			chromedp.WithPollingInterval(200*time.Millisecond),
		),
	)
	if err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

func (p *Page) Click(l Locator) error {
	if err := p.run(p.timeout, chromedp.Click(l.Value, append(l.Opts(), chromedp.NodeVisible)...)); err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

// Type clears the field first, matching what a fresh form fill looks like.
func (p *Page) Type(l Locator, text string) error {
	err := p.run(p.timeout,
		chromedp.Clear(l.Value, l.Opts()...),
		chromedp.SendKeys(l.Value, text, l.Opts()...),
	)
	if err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

func (p *Page) Text(l Locator) (string, error) {
	var out string
	if err := p.run(p.timeout, chromedp.Text(l.Value, &out, append(l.Opts(), chromedp.NodeVisible)...)); err != nil {
		return "", p.wrapWait(err, l)
	}
	return out, nil
}

// IsVisible reports whether the element shows up within the given window.
// It never returns an error; a timeout is simply false.
func (p *Page) IsVisible(l Locator, within time.Duration) bool {
	return p.run(within, chromedp.WaitVisible(l.Value, l.Opts()...)) == nil
}

// IsPresent reports whether the element exists in the DOM within the given
// window, regardless of visibility.
func (p *Page) IsPresent(l Locator, within time.Duration) bool {
	return p.run(within, chromedp.WaitReady(l.Value, l.Opts()...)) == nil
}

func (p *Page) ScrollIntoView(l Locator) error {
	if err := p.run(p.timeout, chromedp.ScrollIntoView(l.Value, l.Opts()...)); err != nil {
		return p.wrapWait(err, l)
	}
	return nil
}

// ScrollTop scrolls to the top of the page and lets the scroll settle.
// Snapshots are always captured from the top.
func (p *Page) ScrollTop() error {
	return p.run(p.timeout,
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
		chromedp.Sleep(200*time.Millisecond),
	)
}

func (p *Page) ScrollBottom() error {
	return p.run(p.timeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(200*time.Millisecond),
	)
}

func (p *Page) CurrentURL() (string, error) {
	var url string
	if err := p.run(p.timeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (p *Page) Title() (string, error) {
	var title string
	if err := p.run(p.timeout, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (p *Page) Reload() error {
	return p.run(p.navTimeout, chromedp.Reload())
}

func (p *Page) Evaluate(expr string, res any) error {
	return p.run(p.timeout, chromedp.Evaluate(expr, res))
}

// Sleep pauses inside the tab's context so a canceled tab aborts the wait.
func (p *Page) Sleep(d time.Duration) error {
	return p.run(d+time.Second, chromedp.Sleep(d))
}

// Screenshot captures the current viewport as PNG.
func (p *Page) Screenshot(path string) error {
	var buf []byte
	if err := p.run(p.timeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return writeFile(path, buf)
}

// FullScreenshot captures the entire page height as PNG.
func (p *Page) FullScreenshot(path string) error {
	var buf []byte
	if err := p.run(p.navTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("capture full screenshot: %w", err)
	}
	return writeFile(path, buf)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (p *Page) wrapWait(err error, l Locator) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, l)
	}
	return fmt.Errorf("%s: %w", l, err)
}
