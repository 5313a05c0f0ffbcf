// Package suite defines what a run covers (pages crossed with viewports)
// and executes it against a browser pool, submitting one snapshot per
// page/viewport pair.
package suite

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/browser"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/percy"
	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/stabilize"
)

var validate = validator.New()

// Spec is a visreg.yaml file: the app under test, the viewport matrix, the
// pages to snapshot, and how to stabilize them.
type Spec struct {
	Name      string             `yaml:"name" validate:"required"`
	BaseURL   string             `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Viewports []browser.Viewport `yaml:"viewports" validate:"required,min=1,dive"`
	Pages     []PageSpec         `yaml:"pages" validate:"required,min=1,dive"`
	Stabilize StabilizeSpec      `yaml:"stabilize,omitempty"`
	Snapshot  percy.Options      `yaml:"snapshot,omitempty"`
}

// PageSpec is one page to snapshot. WaitFor selectors must be visible
// before stabilization starts; they define "this page is loaded".
type PageSpec struct {
	Name    string   `yaml:"name" validate:"required"`
	Path    string   `yaml:"path" validate:"required,startswith=/"`
	WaitFor []string `yaml:"wait_for,omitempty"`
}

// StabilizeSpec overrides the default stabilization plan per suite.
// Nil booleans inherit the default (wait).
type StabilizeSpec struct {
	Hide       []string `yaml:"hide,omitempty"`
	Freeze     []string `yaml:"freeze,omitempty"`
	SettleMs   int      `yaml:"settle_ms,omitempty" validate:"omitempty,min=0,max=10000"`
	WaitImages *bool    `yaml:"wait_images,omitempty"`
	WaitFonts  *bool    `yaml:"wait_fonts,omitempty"`
}

// Plan resolves the overrides against the defaults.
func (s StabilizeSpec) Plan(defaultSettle time.Duration) stabilize.Plan {
	plan := stabilize.DefaultPlan()
	plan.Settle = defaultSettle
	if len(s.Hide) > 0 {
		plan.Hide = stabilize.CombinePatterns(stabilize.DefaultHideSelectors, s.Hide)
	}
	if len(s.Freeze) > 0 {
		plan.Freeze = stabilize.CombinePatterns(stabilize.DefaultFreezeSelectors, s.Freeze)
	}
	if s.SettleMs > 0 {
		plan.Settle = time.Duration(s.SettleMs) * time.Millisecond
	}
	if s.WaitImages != nil {
		plan.WaitImages = *s.WaitImages
	}
	if s.WaitFonts != nil {
		plan.WaitFonts = *s.WaitFonts
	}
	return plan
}

// Load reads and validates a suite file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks field constraints and rejects duplicate snapshot names.
// Percy silently replaces snapshots with the same name inside a build,
// which hides half the matrix; better to fail loudly here.
func (s *Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				return fmt.Errorf("invalid %s: failed %q constraint", fe.Namespace(), fe.Tag())
			}
		}
		return err
	}

	seen := make(map[string]bool)
	for _, p := range s.Pages {
		for _, v := range s.Viewports {
			name := SnapshotName(p, v)
			if seen[name] {
				return fmt.Errorf("duplicate snapshot name %q", name)
			}
			seen[name] = true
		}
	}
	return nil
}

// SnapshotName builds the canonical name for one page/viewport pair,
// e.g. "Homepage - Desktop Full HD 1920x1080".
func SnapshotName(p PageSpec, v browser.Viewport) string {
	return fmt.Sprintf("%s - %s %s", p.Name, v.Name, v)
}

// Default returns the built-in suite: the common desktop, tablet, and
// phone sizes against the homepage and checkout.
func Default() *Spec {
	return &Spec{
		Name: "default",
		Viewports: []browser.Viewport{
			{Name: "Desktop Full HD", Width: 1920, Height: 1080},
			{Name: "Desktop HD", Width: 1366, Height: 768},
			{Name: "Tablet Landscape", Width: 1024, Height: 768},
			{Name: "Tablet Portrait", Width: 768, Height: 1024},
			{Name: "iPhone 11", Width: 414, Height: 896, Mobile: true, Scale: 2.0},
			{Name: "iPhone SE", Width: 375, Height: 667, Mobile: true, Scale: 2.0},
		},
		Pages: []PageSpec{
			{Name: "Homepage", Path: "/", WaitFor: []string{".hero-banner", "nav.main-navigation"}},
			{Name: "Checkout", Path: "/checkout", WaitFor: []string{".order-summary"}},
		},
	}
}

// Job is one unit of work: one page at one viewport.
type Job struct {
	Page     PageSpec
	Viewport browser.Viewport
	Name     string
	Plan     stabilize.Plan
	Options  percy.Options
}

// Jobs expands the matrix. Snapshot options inherit suite-level settings;
// widths and min height default to the viewport's own dimensions so the
// hosted service renders what the browser emulated.
func (s *Spec) Jobs(defaultSettle time.Duration) []Job {
	plan := s.Stabilize.Plan(defaultSettle)

	jobs := make([]Job, 0, len(s.Pages)*len(s.Viewports))
	for _, p := range s.Pages {
		for _, v := range s.Viewports {
			opts := s.Snapshot
			if len(opts.Widths) == 0 {
				opts.Widths = []int{v.Width}
			}
			if opts.MinHeight == 0 {
				opts.MinHeight = v.Height
			}
			jobs = append(jobs, Job{
				Page:     p,
				Viewport: v,
				Name:     SnapshotName(p, v),
				Plan:     plan,
				Options:  opts,
			})
		}
	}
	return jobs
}

// Marshal renders the spec back to YAML (suite init, suite show).
func (s *Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
