package site

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
)

// Homepage structure.
var (
	HomeHero         = page.ByCSS(".hero-banner")
	HomeNav          = page.ByCSS("nav.main-navigation")
	HomeSearchInput  = page.ByID("site-search")
	HomeSearchButton = page.ByCSS("button[type='submit']")
	HomeLogo         = page.ByCSS(".site-logo")
	HomeFooter       = page.ByCSS("footer")
	HomeCheckoutLink = page.ByXPath(`//nav[contains(@class,'main-navigation')]//a[text()='Checkout']`)
	SearchResults    = page.ByCSS(".search-results")
)

// Homepage elements that change between renders. Hidden or frozen before
// every capture; listed here so tests can assert on them directly.
var (
	HomeTimestamp      = page.ByCSS(".timestamp")
	HomeLiveCounter    = page.ByCSS(".live-count")
	HomeRotatingBanner = page.ByCSS(".rotating-banner")
	HomeAnimated       = page.ByCSS(`[data-animate='true']`)
)

// HomePage drives the application homepage.
type HomePage struct {
	pg  *page.Page
	url string
}

func NewHomePage(pg *page.Page, baseURL string) *HomePage {
	return &HomePage{pg: pg, url: strings.TrimRight(baseURL, "/") + "/"}
}

func (h *HomePage) Open() error {
	slog.Info("opening homepage", "url", h.url)
	return h.pg.Navigate(h.url)
}

// WaitLoaded blocks until the elements that define "homepage" are visible
// and the page has stopped changing: hero, nav, boot overlay gone, images,
// fonts, then a short settle.
func (h *HomePage) WaitLoaded() error {
	if err := h.pg.WaitVisible(HomeHero); err != nil {
		return err
	}
	if err := h.pg.WaitVisible(HomeNav); err != nil {
		return err
	}
	if err := h.pg.WaitGone(LoadingOverlay); err != nil {
		return err
	}
	if err := waitAssets(h.pg.Context()); err != nil {
		return err
	}
	return h.pg.Sleep(loadSettle)
}

// HideVolatile removes the per-render noise before a capture.
func (h *HomePage) HideVolatile() error {
	return hideVolatile(h.pg.Context())
}

// PrepareForSnapshot readies the page for capture: full load, a scroll to
// the bottom so lazy images below the fold start fetching, volatile
// elements hidden, scrolled back to the top, one final settle.
func (h *HomePage) PrepareForSnapshot() error {
	if err := h.WaitLoaded(); err != nil {
		return err
	}
	if err := h.pg.ScrollBottom(); err != nil {
		return err
	}
	if err := waitAssets(h.pg.Context()); err != nil {
		return err
	}
	if err := h.HideVolatile(); err != nil {
		return err
	}
	if err := h.pg.ScrollTop(); err != nil {
		return err
	}
	return h.pg.Sleep(snapshotSettle)
}

// IsLoaded reports whether the homepage rendered its structure. It probes
// rather than waits, for use in assertions after a snapshot.
func (h *HomePage) IsLoaded() bool {
	return h.pg.IsVisible(HomeHero, probeTimeout) && h.pg.IsVisible(HomeNav, probeTimeout)
}

func (h *HomePage) HeroText() (string, error) {
	return h.pg.Text(HomeHero)
}

// FirstProductName reads the name of the first card in the product grid.
// Search tests use it to query for something the catalog actually has.
func (h *HomePage) FirstProductName() (string, error) {
	var name string
	err := h.pg.Evaluate(
		`(document.querySelector('.product-card h2') || {textContent: ''}).textContent.trim()`, &name)
	return name, err
}

// Search fills the site search, submits it, and waits for the results page.
// Errors out quickly when the page has no search form at all.
func (h *HomePage) Search(query string) error {
	if !h.pg.IsPresent(HomeSearchInput, probeTimeout) {
		return fmt.Errorf("page has no search input")
	}
	slog.Info("searching", "query", query)
	if err := h.pg.Type(HomeSearchInput, query); err != nil {
		return err
	}
	if err := h.pg.Click(HomeSearchButton); err != nil {
		return err
	}
	if err := h.pg.WaitVisible(SearchResults); err != nil {
		return err
	}
	return h.pg.Sleep(loadSettle)
}

// OpenSearch focuses the search field so any dropdown or overlay renders.
func (h *HomePage) OpenSearch() error {
	if !h.pg.IsPresent(HomeSearchInput, probeTimeout) {
		return fmt.Errorf("page has no search input")
	}
	if err := h.pg.Click(HomeSearchInput); err != nil {
		return err
	}
	return h.pg.Sleep(snapshotSettle)
}

// ClickLogo follows the logo link, which routes back to the homepage. The
// header is shared chrome, so this works from any page of the store.
func (h *HomePage) ClickLogo() error {
	if err := h.pg.Click(HomeLogo); err != nil {
		return err
	}
	return h.pg.Sleep(loadSettle)
}

// OpenCheckoutViaNav follows the checkout link in the main navigation.
func (h *HomePage) OpenCheckoutViaNav() error {
	if err := h.pg.Click(HomeCheckoutLink); err != nil {
		return err
	}
	return h.pg.Sleep(loadSettle)
}

// ScrollToFooter brings the footer into view and waits out the scroll.
func (h *HomePage) ScrollToFooter() error {
	if err := h.pg.ScrollIntoView(HomeFooter); err != nil {
		return err
	}
	return h.pg.Sleep(loadSettle)
}

// FooterVisible probes the footer without waiting the full element timeout.
func (h *HomePage) FooterVisible() bool {
	return h.pg.IsVisible(HomeFooter, probeTimeout)
}
