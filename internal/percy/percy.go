// Package percy submits DOM snapshots to a Percy-compatible agent running
// next to the suite (percy exec). The agent forwards serialized DOM to the
// hosted service, which renders and diffs it; nothing in this package ever
// compares pixels.
//
// Without a token, or with no agent listening, every call degrades to a
// no-op so the suite still exercises pages locally.
package percy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultAddress is where percy exec listens.
	DefaultAddress = "http://localhost:5338"

	// coreVersionHeader carries the agent protocol version. Only major
	// version 1 is spoken here.
	coreVersionHeader = "x-percy-core-version"
)

// ErrDisabled marks snapshots skipped because submission is off: no token,
// no agent, or an unsupported agent. Runs treat it as a skip, not a failure.
var ErrDisabled = fmt.Errorf("percy disabled")

// Options tune how the hosted service renders one snapshot.
type Options struct {
	Widths           []int  `json:"widths,omitempty" yaml:"widths,omitempty"`
	MinHeight        int    `json:"minHeight,omitempty" yaml:"min_height,omitempty"`
	EnableJavaScript bool   `json:"enableJavaScript,omitempty" yaml:"enable_javascript,omitempty"`
	PercyCSS         string `json:"percyCSS,omitempty" yaml:"percy_css,omitempty"`
}

// Client talks to the local agent. Safe for concurrent snapshot jobs; the
// healthcheck and DOM script fetch happen once and are cached.
type Client struct {
	ClientInfo      string
	EnvironmentInfo string

	address string
	token   string
	http    *retryablehttp.Client

	mu      sync.Mutex
	checked bool
	enabled bool
	domJS   string
}

func New(address, token string) *Client {
	if address == "" {
		address = DefaultAddress
	}
	return &Client{
		ClientInfo:      "visreg/dev",
		EnvironmentInfo: "chromedp; " + runtime.Version(),
		address:         strings.TrimRight(address, "/"),
		token:           token,
		http: &retryablehttp.Client{
			HTTPClient:   &http.Client{Timeout: 30 * time.Second},
			Backoff:      retryablehttp.DefaultBackoff,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			RetryWaitMin: 100 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
			RetryMax:     3,
		},
	}
}

// Healthcheck probes the agent and verifies it speaks protocol major
// version 1. Used directly by doctor; Enabled wraps it with caching.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.address+"/percy/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("build healthcheck request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agent not reachable at %s: %w", c.address, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent healthcheck returned %d", resp.StatusCode)
	}

	version := resp.Header.Get(coreVersionHeader)
	if version == "" {
		return fmt.Errorf("agent did not report %s, upgrade @percy/cli", coreVersionHeader)
	}
	major, _, _ := strings.Cut(version, ".")
	if major != "1" {
		return fmt.Errorf("unsupported agent version %s, need 1.x", version)
	}
	return nil
}

// Enabled reports whether snapshots will be submitted. The first call does
// the real work: token check plus agent healthcheck, result cached for the
// rest of the run.
func (c *Client) Enabled(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checked {
		return c.enabled
	}
	c.checked = true

	if c.token == "" {
		slog.Info("PERCY_TOKEN not set, snapshots disabled")
		c.enabled = false
		return false
	}
	if err := c.Healthcheck(ctx); err != nil {
		slog.Info("Percy is not running, disabling snapshots", "err", err)
		c.enabled = false
		return false
	}
	c.enabled = true
	return true
}

// Snapshot serializes the DOM of the tab behind ctx and submits it under
// name. Returns ErrDisabled when submission is off; any other error means
// an enabled submission actually failed.
func (c *Client) Snapshot(ctx context.Context, name string, opts Options) error {
	if !c.Enabled(ctx) {
		return fmt.Errorf("snapshot %q: %w", name, ErrDisabled)
	}

	domSnapshot, pageURL, err := c.serialize(ctx, opts)
	if err != nil {
		return fmt.Errorf("snapshot %q: serialize DOM: %w", name, err)
	}

	body, err := json.Marshal(snapshotRequest{
		Name:            name,
		URL:             pageURL,
		DOMSnapshot:     domSnapshot,
		ClientInfo:      c.ClientInfo,
		EnvironmentInfo: c.EnvironmentInfo,
		Options:         opts,
	})
	if err != nil {
		return fmt.Errorf("snapshot %q: encode request: %w", name, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.address+"/percy/snapshot", body)
	if err != nil {
		return fmt.Errorf("snapshot %q: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("snapshot %q: submit: %w", name, err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("snapshot %q: decode response: %w", name, err)
	}
	if !result.Success {
		return fmt.Errorf("snapshot %q rejected: %s", name, result.Error)
	}

	slog.Debug("snapshot submitted", "name", name)
	return nil
}

type snapshotRequest struct {
	Name            string          `json:"name"`
	URL             string          `json:"url"`
	DOMSnapshot     json.RawMessage `json:"domSnapshot"`
	ClientInfo      string          `json:"clientInfo"`
	EnvironmentInfo string          `json:"environmentInfo"`
	Options
}

// serialize injects the agent's DOM script if the page does not carry it
// yet, then runs PercyDOM.serialize in the tab.
func (c *Client) serialize(ctx context.Context, opts Options) (json.RawMessage, string, error) {
	var has bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(`!!window.PercyDOM`, &has)); err != nil {
		return nil, "", fmt.Errorf("probe PercyDOM: %w", err)
	}
	if !has {
		script, err := c.domScript(ctx)
		if err != nil {
			return nil, "", err
		}
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, nil)); err != nil {
			return nil, "", fmt.Errorf("inject dom.js: %w", err)
		}
	}

	serializeOpts, _ := json.Marshal(struct {
		EnableJavaScript bool `json:"enableJavaScript,omitempty"`
	}{opts.EnableJavaScript})

	var domSnapshot json.RawMessage
	var pageURL string
	err := chromedp.Run(ctx,
		chromedp.Evaluate(`window.PercyDOM.serialize(`+string(serializeOpts)+`)`, &domSnapshot),
		chromedp.Location(&pageURL),
	)
	if err != nil {
		return nil, "", fmt.Errorf("PercyDOM.serialize: %w", err)
	}
	return domSnapshot, pageURL, nil
}

// domScript fetches /percy/dom.js once and caches it for every tab.
func (c *Client) domScript(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.domJS != "" {
		return c.domJS, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.address+"/percy/dom.js", nil)
	if err != nil {
		return "", fmt.Errorf("build dom.js request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dom.js: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch dom.js: status %d", resp.StatusCode)
	}
	script, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read dom.js: %w", err)
	}
	c.domJS = string(script)
	return c.domJS, nil
}
