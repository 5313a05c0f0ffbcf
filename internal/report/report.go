// Package report writes run artifacts: a JSON document with every result
// and a markdown summary table, both under the artifacts directory next to
// any screenshots the run produced.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/suite"
)

// Document is the JSON artifact for one run.
type Document struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Suite    string         `json:"suite"`
	BaseURL  string         `json:"baseUrl"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Duration string         `json:"duration"`
	Total    int            `json:"total"`
	OK       int            `json:"ok"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []suite.Result `json:"results"`
}

// Build snapshots a run into a Document.
func Build(run *suite.Run) Document {
	ok, skipped, failed := run.Counts()
	return Document{
		ID:       run.ID,
		Name:     run.Name,
		Suite:    run.SuiteName,
		BaseURL:  run.BaseURL,
		Started:  run.Started,
		Finished: run.Finished,
		Duration: run.Finished.Sub(run.Started).Round(time.Millisecond).String(),
		Total:    run.Total,
		OK:       ok,
		Skipped:  skipped,
		Failed:   failed,
		Results:  run.Results(),
	}
}

// Write produces run-<name>.json and run-<name>.md under dir and returns
// their paths.
func Write(dir string, run *suite.Run) (jsonPath, mdPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create artifacts dir: %w", err)
	}

	doc := Build(run)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal report: %w", err)
	}
	jsonPath = filepath.Join(dir, "run-"+run.Name+".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}

	mdPath = filepath.Join(dir, "run-"+run.Name+".md")
	if err := os.WriteFile(mdPath, []byte(Markdown(doc)), 0644); err != nil {
		return jsonPath, "", fmt.Errorf("write report: %w", err)
	}
	return jsonPath, mdPath, nil
}

// Markdown renders the summary table.
func Markdown(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Visual run %s\n\n", doc.Name)
	fmt.Fprintf(&b, "- Suite: %s\n", doc.Suite)
	fmt.Fprintf(&b, "- Base URL: %s\n", doc.BaseURL)
	fmt.Fprintf(&b, "- Started: %s\n", doc.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", doc.Duration)
	fmt.Fprintf(&b, "- Snapshots: %d ok / %d skipped / %d failed of %d\n\n",
		doc.OK, doc.Skipped, doc.Failed, doc.Total)

	if len(doc.Results) == 0 {
		b.WriteString("No results.\n")
		return b.String()
	}

	b.WriteString("| Page | Viewport | Status | Duration | Detail |\n")
	b.WriteString("|------|----------|--------|----------|--------|\n")
	for _, res := range doc.Results {
		detail := res.Error
		if detail == "" && res.Screenshot != "" {
			detail = res.Screenshot
		}
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(&b, "| %s | %s %s | %s | %s | %s |\n",
			res.Page, res.Viewport, res.Dimensions, res.Status,
			res.Duration.Round(time.Millisecond), escapePipes(detail))
	}
	b.WriteString("\n")
	return b.String()
}

// Summary is the one-line outcome for logs and the CLI.
func Summary(run *suite.Run) string {
	ok, skipped, failed := run.Counts()
	return fmt.Sprintf("%d ok, %d skipped, %d failed of %d (took %s)",
		ok, skipped, failed, run.Total, run.Finished.Sub(run.Started).Round(time.Millisecond))
}

// escapePipes keeps error text from breaking the table layout.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
