package fixture

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	New().Handler().ServeHTTP(w, r)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(w.Body)
	require.NoError(t, err)
	return doc
}

func TestHomePage(t *testing.T) {
	w := get(t, "/")
	require.Equal(t, 200, w.Code)
	doc := parse(t, w)

	for _, xpath := range []string{
		`//div[@class='loading-overlay']`,
		`//section[@class='hero-banner']`,
		`//nav[@class='main-navigation']`,
		`//input[@id='site-search']`,
		`//button[@type='submit']`,
		`//a[@class='site-logo']`,
		`//footer`,
		`//p[@class='timestamp']`,
		`//span[@class='live-count']`,
		`//div[contains(@class,'rotating-banner')]`,
		`//a[@data-animate='true']`,
		`//p[@data-dynamic='true']`,
	} {
		assert.NotNil(t, htmlquery.FindOne(doc, xpath), "missing %s", xpath)
	}

	cards := htmlquery.Find(doc, `//article[@class='product-card']`)
	assert.Len(t, cards, 8)
}

func TestHomePageDeterministic(t *testing.T) {
	names := func() []string {
		doc := parse(t, get(t, "/"))
		var out []string
		for _, h := range htmlquery.Find(doc, `//article[@class='product-card']/h2`) {
			out = append(out, htmlquery.InnerText(h))
		}
		return out
	}

	first := names()
	second := names()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "catalog must be identical across server instances")
}

func TestCheckoutPage(t *testing.T) {
	w := get(t, "/checkout")
	require.Equal(t, 200, w.Code)
	doc := parse(t, w)

	require.NotNil(t, htmlquery.FindOne(doc, `//section[@class='order-summary']`))
	require.NotNil(t, htmlquery.FindOne(doc, `//form[@id='payment-form']`))
	require.NotNil(t, htmlquery.FindOne(doc, `//form[@id='payment-form']//button[@type='submit']`))

	items := htmlquery.Find(doc, `//section[@class='order-summary']//li`)
	assert.Len(t, items, 3)

	assert.Nil(t, htmlquery.FindOne(doc, `//p[@class='payment-confirmation']`),
		"confirmation only renders after a POST")
}

func TestCheckoutConfirmation(t *testing.T) {
	r := httptest.NewRequest("POST", "/checkout", nil)
	w := httptest.NewRecorder()
	New().Handler().ServeHTTP(w, r)
	require.Equal(t, 200, w.Code)

	doc := parse(t, w)
	assert.NotNil(t, htmlquery.FindOne(doc, `//p[@class='payment-confirmation']`))
}

func TestSearch(t *testing.T) {
	// An empty query matches the whole catalog.
	doc := parse(t, get(t, "/search?q="))
	hits := htmlquery.Find(doc, `//main[@class='search-results']//li`)
	assert.Len(t, hits, 8)

	doc = parse(t, get(t, "/search?q=zzzzzzzz"))
	assert.Nil(t, htmlquery.FindOne(doc, `//main[@class='search-results']//li`))
	assert.NotNil(t, htmlquery.FindOne(doc, `//p[@class='no-results']`))
}

func TestHealthz(t *testing.T) {
	w := get(t, "/healthz")
	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestNotFound(t *testing.T) {
	assert.Equal(t, 404, get(t, "/no-such-page").Code)
}

func TestStartShutdown(t *testing.T) {
	srv := New()
	addr, err := srv.Start("")
	require.NoError(t, err)
	require.NotEmpty(t, addr)
	defer srv.Shutdown(context.Background())

	assert.Equal(t, "http://"+addr, srv.URL())

	resp, err := http.Get(srv.URL() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	// Second Start is a no-op returning the same address.
	again, err := srv.Start("")
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()), "shutdown is idempotent")
}
