package stabilize

import (
	"testing"
)

func TestAnalyticsBlockPatterns(t *testing.T) {
	if len(AnalyticsBlockPatterns) < 30 {
		t.Errorf("expected at least 30 block patterns, got %d", len(AnalyticsBlockPatterns))
	}

	// Services that most often destabilize snapshots must be covered.
	essentialPatterns := []string{
		"*google-analytics.com/*",
		"*googletagmanager.com/*",
		"*hotjar.com/*",
		"*optimizely.com/*",
		"*onetrust.com/*",
		"*/collect?*",
	}

	patternMap := make(map[string]bool)
	for _, p := range AnalyticsBlockPatterns {
		patternMap[p] = true
	}

	for _, essential := range essentialPatterns {
		if !patternMap[essential] {
			t.Errorf("missing essential pattern: %s", essential)
		}
	}
}

func TestAnalyticsBlockPatternsNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range AnalyticsBlockPatterns {
		if seen[p] {
			t.Errorf("duplicate pattern: %s", p)
		}
		seen[p] = true
	}
}

func TestCombinePatterns(t *testing.T) {
	list1 := []string{"*.jpg", "*.png", "*.gif"}
	list2 := []string{"*.mp4", "*.png", "*.webm"} // .png is duplicate
	list3 := []string{"*hotjar.com/*"}

	combined := CombinePatterns(list1, list2, list3)

	if len(combined) != 6 {
		t.Errorf("expected 6 unique patterns, got %d", len(combined))
	}

	expected := map[string]bool{
		"*.jpg":          true,
		"*.png":          true,
		"*.gif":          true,
		"*.mp4":          true,
		"*.webm":         true,
		"*hotjar.com/*":  true,
	}

	for _, pattern := range combined {
		if !expected[pattern] {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		delete(expected, pattern)
	}

	if len(expected) > 0 {
		t.Errorf("missing patterns: %v", expected)
	}
}

func TestCombinePatterns_Empty(t *testing.T) {
	combined := CombinePatterns([]string{}, []string{})
	if len(combined) != 0 {
		t.Errorf("expected empty result for empty inputs, got %d patterns", len(combined))
	}

	list := []string{"*.jpg", "*.png"}
	combined = CombinePatterns(list, []string{})
	if len(combined) != 2 {
		t.Errorf("expected 2 patterns, got %d", len(combined))
	}
}
