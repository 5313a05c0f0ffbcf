package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

func sampleRun() *suite.Run {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	run := &suite.Run{
		ID:        "b2f1d9e4-0000-0000-0000-000000000000",
		Name:      "casual-mallard",
		SuiteName: "default",
		BaseURL:   "http://127.0.0.1:8080",
		Started:   started,
		Finished:  started.Add(42 * time.Second),
		Total:     3,
	}
	run.Add(suite.Result{
		Page: "Homepage", Viewport: "Desktop Full HD", Dimensions: "1920x1080",
		Name: "Homepage - Desktop Full HD 1920x1080", Status: suite.StatusOK,
		Duration: 3 * time.Second,
	})
	run.Add(suite.Result{
		Page: "Homepage", Viewport: "iPhone SE", Dimensions: "375x667",
		Name: "Homepage - iPhone SE 375x667", Status: suite.StatusSkipped,
		Duration: time.Second,
	})
	run.Add(suite.Result{
		Page: "Checkout", Viewport: "Desktop Full HD", Dimensions: "1920x1080",
		Name: "Checkout - Desktop Full HD 1920x1080", Status: suite.StatusFailed,
		Error: "wait for .order-summary: timed out | giving up", Duration: 15 * time.Second,
		Screenshot: "artifacts/screenshots/failed-checkout-desktop-full-hd-1920x1080.png",
	})
	return run
}

func TestBuild(t *testing.T) {
	doc := Build(sampleRun())

	if doc.Name != "casual-mallard" {
		t.Errorf("Name = %q", doc.Name)
	}
	if doc.OK != 1 || doc.Skipped != 1 || doc.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", doc.OK, doc.Skipped, doc.Failed)
	}
	if doc.Duration != "42s" {
		t.Errorf("Duration = %q, want 42s", doc.Duration)
	}
	if len(doc.Results) != 3 {
		t.Fatalf("got %d results", len(doc.Results))
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	jsonPath, mdPath, err := Write(dir, sampleRun())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if filepath.Base(jsonPath) != "run-casual-mallard.json" {
		t.Errorf("json path = %s", jsonPath)
	}
	if filepath.Base(mdPath) != "run-casual-mallard.md" {
		t.Errorf("md path = %s", mdPath)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if doc.Total != 3 || doc.Failed != 1 {
		t.Errorf("decoded total=%d failed=%d", doc.Total, doc.Failed)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read md: %v", err)
	}
	if !strings.Contains(string(md), "| Homepage | Desktop Full HD 1920x1080 | ok |") {
		t.Errorf("markdown missing ok row:\n%s", md)
	}
}

func TestWriteCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	if _, _, err := Write(dir, sampleRun()); err != nil {
		t.Fatalf("Write into missing dir: %v", err)
	}
}

func TestMarkdownEscapesPipes(t *testing.T) {
	md := Markdown(Build(sampleRun()))
	if !strings.Contains(md, `timed out \| giving up`) {
		t.Errorf("pipe in error text not escaped:\n%s", md)
	}
	if strings.Contains(md, "No results.") {
		t.Error("summary claims no results")
	}
}

func TestMarkdownEmptyRun(t *testing.T) {
	run := &suite.Run{Name: "empty", SuiteName: "default"}
	md := Markdown(Build(run))
	if !strings.Contains(md, "No results.") {
		t.Errorf("empty run should say so:\n%s", md)
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleRun())
	want := "1 ok, 1 skipped, 1 failed of 3 (took 42s)"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
