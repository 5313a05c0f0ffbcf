// Package dashboard serves a local live view of a run: aggregate state,
// per-snapshot results, a server-sent event stream, and a WebSocket
// screencast of whichever tab is currently working.
package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/report"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/web"
)

//go:embed assets/dashboard.html
var dashboardHTML []byte

type Config struct {
	SSEBufferSize int
	KeepAlive     time.Duration

	// ArtifactsDir enables /screenshots/ when set; failure screenshots
	// are served from its screenshots subdirectory.
	ArtifactsDir string
}

// PreviewSource yields a live tab context to stream. The browser pool
// implements it.
type PreviewSource interface {
	Peek() (context.Context, bool)
}

type Dashboard struct {
	cfg     Config
	preview PreviewSource

	mu       sync.RWMutex
	run      *suite.Run
	sseConns map[chan suite.Event]struct{}
}

func New(cfg *Config) *Dashboard {
	c := Config{
		SSEBufferSize: 64,
		KeepAlive:     30 * time.Second,
	}
	if cfg != nil {
		if cfg.SSEBufferSize > 0 {
			c.SSEBufferSize = cfg.SSEBufferSize
		}
		if cfg.KeepAlive > 0 {
			c.KeepAlive = cfg.KeepAlive
		}
		c.ArtifactsDir = cfg.ArtifactsDir
	}
	return &Dashboard{
		cfg:      c,
		sseConns: make(map[chan suite.Event]struct{}),
	}
}

// SetPreviewSource wires the tab source for /preview. Without one the
// endpoint reports no tab.
func (d *Dashboard) SetPreviewSource(src PreviewSource) {
	d.preview = src
}

// Observer returns the hook the runner calls at run milestones. Events
// update dashboard state and fan out to connected SSE clients without
// blocking the run.
func (d *Dashboard) Observer() suite.Observer {
	return func(evt suite.Event) {
		d.mu.Lock()
		if evt.Run != nil {
			d.run = evt.Run
		}
		chans := make([]chan suite.Event, 0, len(d.sseConns))
		for ch := range d.sseConns {
			chans = append(chans, ch)
		}
		d.mu.Unlock()

		for _, ch := range chans {
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

func (d *Dashboard) currentRun() *suite.Run {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.run
}

func (d *Dashboard) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/run", d.handleRun)
	mux.HandleFunc("GET /api/results", d.handleResults)
	mux.HandleFunc("GET /api/metrics", handleMetrics)
	mux.HandleFunc("GET /events", d.handleSSE)
	mux.HandleFunc("GET /preview", d.handlePreview)
	mux.HandleFunc("GET /screenshots/", d.handleScreenshot)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /", withNoCache(http.HandlerFunc(d.handleUI)))
}

func (d *Dashboard) handleRun(w http.ResponseWriter, r *http.Request) {
	run := d.currentRun()
	if run == nil {
		web.JSON(w, http.StatusOK, map[string]any{"idle": true})
		return
	}
	web.JSON(w, http.StatusOK, report.Build(run))
}

func (d *Dashboard) handleResults(w http.ResponseWriter, r *http.Request) {
	run := d.currentRun()
	if run == nil {
		web.JSON(w, http.StatusOK, []suite.Result{})
		return
	}
	web.JSON(w, http.StatusOK, run.Results())
}

// handleScreenshot serves failure screenshots by file name. Result rows in
// the UI link here.
func (d *Dashboard) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if d.cfg.ArtifactsDir == "" {
		web.Error(w, http.StatusNotFound, fmt.Errorf("screenshots not available"))
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/screenshots/")
	path, err := web.SafePath(filepath.Join(d.cfg.ArtifactsDir, "screenshots"), name)
	if err != nil {
		web.Error(w, http.StatusBadRequest, err)
		return
	}
	http.ServeFile(w, r, path)
}

// streamEvent is the SSE wire shape: the event plus running counts so the
// UI never has to refetch.
type streamEvent struct {
	Kind    suite.EventKind `json:"kind"`
	Result  *suite.Result   `json:"result,omitempty"`
	Total   int             `json:"total"`
	OK      int             `json:"ok"`
	Skipped int             `json:"skipped"`
	Failed  int             `json:"failed"`
}

func (d *Dashboard) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan suite.Event, d.cfg.SSEBufferSize)
	d.mu.Lock()
	d.sseConns[ch] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.sseConns, ch)
		d.mu.Unlock()
	}()

	// Current state first so late joiners render immediately.
	if run := d.currentRun(); run != nil {
		data, _ := json.Marshal(report.Build(run))
		_, _ = fmt.Fprintf(w, "event: init\ndata: %s\n\n", data)
	} else {
		_, _ = fmt.Fprintf(w, "event: init\ndata: {\"idle\":true}\n\n")
	}
	flusher.Flush()

	keepalive := time.NewTicker(d.cfg.KeepAlive)
	defer keepalive.Stop()

	for {
		select {
		case evt := <-ch:
			se := streamEvent{Kind: evt.Kind, Result: evt.Result}
			if evt.Run != nil {
				se.Total = evt.Run.Total
				se.OK, se.Skipped, se.Failed = evt.Run.Counts()
			}
			data, _ := json.Marshal(se)
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, data)
			flusher.Flush()
		case <-keepalive.C:
			_, _ = fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (d *Dashboard) handleUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write(dashboardHTML)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
