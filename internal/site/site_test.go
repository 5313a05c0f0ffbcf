package site

import (
	"strings"
	"testing"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
)

func TestHomeLocators(t *testing.T) {
	tests := []struct {
		name string
		loc  page.Locator
		want string
	}{
		{"hero", HomeHero, ".hero-banner"},
		{"nav", HomeNav, "nav.main-navigation"},
		{"search input", HomeSearchInput, "#site-search"},
		{"search button", HomeSearchButton, "button[type='submit']"},
		{"logo", HomeLogo, ".site-logo"},
		{"footer", HomeFooter, "footer"},
		{"search results", SearchResults, ".search-results"},
		{"loading overlay", LoadingOverlay, ".loading-overlay"},
		{"timestamp", HomeTimestamp, ".timestamp"},
		{"live counter", HomeLiveCounter, ".live-count"},
		{"rotating banner", HomeRotatingBanner, ".rotating-banner"},
		{"animated", HomeAnimated, `[data-animate='true']`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.loc.Strategy != page.CSS {
				t.Errorf("strategy = %s, want css", tt.loc.Strategy)
			}
			if tt.loc.Value != tt.want {
				t.Errorf("value = %q, want %q", tt.loc.Value, tt.want)
			}
		})
	}

	if HomeCheckoutLink.Strategy != page.XPath {
		t.Errorf("checkout link strategy = %s, want xpath", HomeCheckoutLink.Strategy)
	}
	if !strings.Contains(HomeCheckoutLink.Value, "main-navigation") {
		t.Errorf("checkout link = %q, should target the main navigation", HomeCheckoutLink.Value)
	}
}

func TestCheckoutLocators(t *testing.T) {
	if CheckoutSummary.Value != ".order-summary" {
		t.Errorf("summary = %q", CheckoutSummary.Value)
	}
	if CheckoutPaymentForm.Value != "#payment-form" {
		t.Errorf("payment form = %q", CheckoutPaymentForm.Value)
	}
	if CheckoutSubmit.Value != "#payment-form button[type='submit']" {
		t.Errorf("submit = %q", CheckoutSubmit.Value)
	}
	if CheckoutCardNumber.Value != "#card-number" {
		t.Errorf("card number = %q", CheckoutCardNumber.Value)
	}
	if CheckoutConfirmation.Value != ".payment-confirmation" {
		t.Errorf("confirmation = %q", CheckoutConfirmation.Value)
	}
}

func TestPageURLs(t *testing.T) {
	tests := []struct {
		base string
		home string
		co   string
	}{
		{"http://127.0.0.1:9000", "http://127.0.0.1:9000/", "http://127.0.0.1:9000/checkout"},
		{"http://127.0.0.1:9000/", "http://127.0.0.1:9000/", "http://127.0.0.1:9000/checkout"},
		{"https://staging.example.com", "https://staging.example.com/", "https://staging.example.com/checkout"},
	}

	for _, tt := range tests {
		if got := NewHomePage(nil, tt.base).url; got != tt.home {
			t.Errorf("home url for %q = %q, want %q", tt.base, got, tt.home)
		}
		if got := NewCheckoutPage(nil, tt.base).url; got != tt.co {
			t.Errorf("checkout url for %q = %q, want %q", tt.base, got, tt.co)
		}
	}
}
