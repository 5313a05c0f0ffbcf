package page

import (
	"strings"
	"testing"
)

func TestLocatorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		loc          Locator
		wantStrategy Strategy
		wantValue    string
	}{
		{"css", ByCSS(".hero-banner"), CSS, ".hero-banner"},
		{"id", ByID("site-search"), CSS, "#site-search"},
		{"xpath", ByXPath("//footer"), XPath, "//footer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.loc.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %v, want %v", tt.loc.Strategy, tt.wantStrategy)
			}
			if tt.loc.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", tt.loc.Value, tt.wantValue)
			}
		})
	}
}

func TestLocatorString(t *testing.T) {
	l := ByCSS("nav.main-navigation")
	if got := l.String(); got != "css:nav.main-navigation" {
		t.Errorf("String() = %q, want %q", got, "css:nav.main-navigation")
	}

	x := ByXPath("//button[@type='submit']")
	if got := x.String(); got != "xpath://button[@type='submit']" {
		t.Errorf("String() = %q, want %q", got, "xpath://button[@type='submit']")
	}
}

func TestLocatorOpts(t *testing.T) {
	if opts := ByCSS(".logo").Opts(); len(opts) != 1 {
		t.Errorf("css Opts() returned %d options, want 1", len(opts))
	}
	if opts := ByXPath("//div").Opts(); len(opts) != 1 {
		t.Errorf("xpath Opts() returned %d options, want 1", len(opts))
	}
}

func TestGoneExprCSS(t *testing.T) {
	expr := ByCSS(".loading-overlay").GoneExpr()

	if !strings.Contains(expr, `document.querySelector(".loading-overlay")`) {
		t.Error("css gone expression should use querySelector")
	}
	if !strings.Contains(expr, "if (!el) return true") {
		t.Error("absent element should count as gone")
	}
	if !strings.Contains(expr, "style.display === 'none'") {
		t.Error("hidden element should count as gone")
	}
}

func TestGoneExprXPath(t *testing.T) {
	expr := ByXPath("//div[@class='spinner']").GoneExpr()

	if !strings.Contains(expr, "document.evaluate(") {
		t.Error("xpath gone expression should use document.evaluate")
	}
	if !strings.Contains(expr, "FIRST_ORDERED_NODE_TYPE") {
		t.Error("xpath gone expression should resolve a single node")
	}
}

func TestGoneExprEscapesQuotes(t *testing.T) {
	expr := ByCSS(`[data-dynamic="true"]`).GoneExpr()
	if !strings.Contains(expr, `[data-dynamic=\"true\"]`) {
		t.Error("selector quotes not JSON-escaped")
	}
}
