package page

import (
	"encoding/json"

	"github.com/chromedp/chromedp"
)

type Strategy string

const (
	CSS   Strategy = "css"
	XPath Strategy = "xpath"
)

// Locator names one element on a page. Page objects declare these as
// package-level variables so tests read like the DOM they drive.
type Locator struct {
	Strategy Strategy
	Value    string
}

func ByCSS(selector string) Locator {
	return Locator{Strategy: CSS, Value: selector}
}

func ByID(id string) Locator {
	return Locator{Strategy: CSS, Value: "#" + id}
}

func ByXPath(expr string) Locator {
	return Locator{Strategy: XPath, Value: expr}
}

func (l Locator) String() string {
	return string(l.Strategy) + ":" + l.Value
}

// Opts maps the locator onto chromedp query options.
func (l Locator) Opts() []chromedp.QueryOption {
	if l.Strategy == XPath {
		return []chromedp.QueryOption{chromedp.BySearch}
	}
	return []chromedp.QueryOption{chromedp.ByQuery}
}

// GoneExpr builds a JS expression that is true once the element is absent
// or hidden. Used instead of a node wait because a removed element never
// matches a node query.
func (l Locator) GoneExpr() string {
	sel, _ := json.Marshal(l.Value)
	lookup := `document.querySelector(` + string(sel) + `)`
	if l.Strategy == XPath {
		lookup = `document.evaluate(` + string(sel) + `, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`
	}
	return `(() => {
  const el = ` + lookup + `;
  if (!el) return true;
  const style = window.getComputedStyle(el);
  return style.display === 'none' || style.visibility === 'hidden' || el.offsetParent === null;
})()`
}
