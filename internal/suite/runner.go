package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/browser"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/config"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/percy"
)

// Runner executes a suite: jobs fan out over the tab pool, each one sets a
// viewport, loads its page, stabilizes it, and submits a snapshot.
type Runner struct {
	cfg       *config.RuntimeConfig
	spec      *Spec
	pool      *browser.Pool
	percy     *percy.Client
	baseURL   string
	observers []Observer
}

func NewRunner(cfg *config.RuntimeConfig, spec *Spec, pool *browser.Pool, pc *percy.Client) (*Runner, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = spec.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base URL: set BASE_URL or base_url in the suite")
	}
	return &Runner{
		cfg:     cfg,
		spec:    spec,
		pool:    pool,
		percy:   pc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Observe registers an observer for run events. Not safe to call once the
// run has started.
func (r *Runner) Observe(obs Observer) {
	r.observers = append(r.observers, obs)
}

func (r *Runner) emit(evt Event) {
	for _, obs := range r.observers {
		obs(evt)
	}
}

// Run executes every job. Job failures land in the results; the returned
// error is reserved for the run itself dying (context canceled, pool gone).
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	jobs := r.spec.Jobs(r.cfg.SettleDelay)

	run := &Run{
		ID:        uuid.NewString(),
		Name:      petname.Generate(2, "-"),
		SuiteName: r.spec.Name,
		BaseURL:   r.baseURL,
		Started:   time.Now(),
		Total:     len(jobs),
	}

	slog.Info("run started",
		"run", run.Name,
		"suite", run.SuiteName,
		"base", run.BaseURL,
		"jobs", len(jobs),
		"concurrency", r.cfg.Concurrency,
	)
	r.emit(Event{Kind: EventRunStarted, Run: run})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, job := range jobs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res := r.runJob(gctx, job)
			run.Add(res)
			r.emit(Event{Kind: EventJobFinished, Run: run, Result: &res})
			return nil
		})
	}

	err := g.Wait()
	run.Finished = time.Now()

	ok, skipped, failed := run.Counts()
	slog.Info("run finished",
		"run", run.Name,
		"ok", ok,
		"skipped", skipped,
		"failed", failed,
		"took", run.Finished.Sub(run.Started).Round(time.Millisecond),
	)
	r.emit(Event{Kind: EventRunFinished, Run: run})

	if err != nil {
		return run, fmt.Errorf("run aborted: %w", err)
	}
	return run, nil
}

func (r *Runner) runJob(ctx context.Context, job Job) Result {
	res := Result{
		Page:       job.Page.Name,
		Viewport:   job.Viewport.Name,
		Dimensions: job.Viewport.String(),
		Name:       job.Name,
		Started:    time.Now(),
	}

	err := r.pool.With(ctx, func(tab *browser.Tab) error {
		return r.snapshot(tab, job, &res)
	})
	res.Duration = time.Since(res.Started)

	switch {
	case err == nil && res.Status == "":
		res.Status = StatusOK
	case errors.Is(err, percy.ErrDisabled):
		res.Status = StatusSkipped
		slog.Debug("snapshot skipped", "name", job.Name)
	case err != nil:
		res.Status = StatusFailed
		res.Error = err.Error()
		slog.Error("job failed", "name", job.Name, "err", err)
	}
	return res
}

func (r *Runner) snapshot(tab *browser.Tab, job Job, res *Result) error {
	tabCtx := tab.Context()
	pg := page.New(tabCtx, r.cfg.ActionTimeout, r.cfg.NavigateTimeout)

	if err := browser.SetViewport(tabCtx, job.Viewport); err != nil {
		return err
	}
	if err := pg.Navigate(r.baseURL + job.Page.Path); err != nil {
		r.captureFailure(pg, job, res)
		return err
	}
	for _, sel := range job.Page.WaitFor {
		if err := pg.WaitVisible(page.ByCSS(sel)); err != nil {
			r.captureFailure(pg, job, res)
			return err
		}
	}

	if err := job.Plan.Apply(tabCtx); err != nil {
		return err
	}
	if err := pg.ScrollTop(); err != nil {
		return err
	}

	if r.cfg.Screenshots {
		shot := r.screenshotPath(job, "")
		if err := pg.Screenshot(shot); err != nil {
			slog.Warn("debug screenshot failed", "name", job.Name, "err", err)
		} else {
			res.Screenshot = shot
		}
	}

	return r.percy.Snapshot(tabCtx, job.Name, job.Options)
}

// captureFailure grabs what the page looked like when a job died. Best
// effort; the original error is what matters.
func (r *Runner) captureFailure(pg *page.Page, job Job, res *Result) {
	shot := r.screenshotPath(job, "failed-")
	if err := pg.Screenshot(shot); err != nil {
		slog.Debug("failure screenshot failed", "name", job.Name, "err", err)
		return
	}
	res.Screenshot = shot
}

func (r *Runner) screenshotPath(job Job, prefix string) string {
	return filepath.Join(r.cfg.ArtifactsDir, "screenshots", prefix+Slug(job.Name)+".png")
}

// Slug turns a snapshot name into a safe filename.
func Slug(name string) string {
	var b strings.Builder
	lastDash := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
