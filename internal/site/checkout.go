package site

import (
	"log/slog"
	"strings"

	"github.com/JasonTeixeira/visual-regression-testing-suite/internal/page"
)

// Checkout structure.
var (
	CheckoutSummary      = page.ByCSS(".order-summary")
	CheckoutPaymentForm  = page.ByID("payment-form")
	CheckoutSubmit       = page.ByCSS("#payment-form button[type='submit']")
	CheckoutCardName     = page.ByID("card-name")
	CheckoutCardNumber   = page.ByID("card-number")
	CheckoutCardExpiry   = page.ByID("card-expiry")
	CheckoutCardCVC      = page.ByID("card-cvc")
	CheckoutConfirmation = page.ByCSS(".payment-confirmation")
)

// CheckoutPage drives the checkout flow page.
type CheckoutPage struct {
	pg  *page.Page
	url string
}

func NewCheckoutPage(pg *page.Page, baseURL string) *CheckoutPage {
	return &CheckoutPage{pg: pg, url: strings.TrimRight(baseURL, "/") + "/checkout"}
}

func (c *CheckoutPage) Open() error {
	slog.Info("opening checkout", "url", c.url)
	return c.pg.Navigate(c.url)
}

// WaitLoaded blocks until the order summary and payment form rendered and
// any boot overlay cleared.
func (c *CheckoutPage) WaitLoaded() error {
	if err := c.pg.WaitVisible(CheckoutSummary); err != nil {
		return err
	}
	if err := c.pg.WaitPresent(CheckoutPaymentForm); err != nil {
		return err
	}
	if err := c.pg.WaitGone(LoadingOverlay); err != nil {
		return err
	}
	if err := waitAssets(c.pg.Context()); err != nil {
		return err
	}
	return c.pg.Sleep(loadSettle)
}

// PrepareForSnapshot readies the checkout for capture.
func (c *CheckoutPage) PrepareForSnapshot() error {
	if err := c.WaitLoaded(); err != nil {
		return err
	}
	if err := hideVolatile(c.pg.Context()); err != nil {
		return err
	}
	if err := c.pg.ScrollTop(); err != nil {
		return err
	}
	return c.pg.Sleep(snapshotSettle)
}

func (c *CheckoutPage) IsLoaded() bool {
	return c.pg.IsVisible(CheckoutSummary, probeTimeout)
}

// SubmitPayment fills the card form and submits it. The form posts back to
// the same page, so this waits for the confirmation banner on the reloaded
// document.
func (c *CheckoutPage) SubmitPayment(name, number, expiry, cvc string) error {
	fields := []struct {
		loc  page.Locator
		text string
	}{
		{CheckoutCardName, name},
		{CheckoutCardNumber, number},
		{CheckoutCardExpiry, expiry},
		{CheckoutCardCVC, cvc},
	}
	for _, f := range fields {
		if err := c.pg.Type(f.loc, f.text); err != nil {
			return err
		}
	}
	if err := c.pg.Click(CheckoutSubmit); err != nil {
		return err
	}
	return c.pg.WaitVisible(CheckoutConfirmation)
}

func (c *CheckoutPage) ConfirmationVisible() bool {
	return c.pg.IsVisible(CheckoutConfirmation, probeTimeout)
}
