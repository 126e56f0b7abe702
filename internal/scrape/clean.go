package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// noiseSelector matches page chrome and non-content elements removed before
// URL extraction.
const noiseSelector = "nav, header, footer, .nav, .header, .footer, .sidebar, .menu, .breadcrumb, " +
	"script, style, noscript, .advertisement, .ads"

// ErrSelectorEmpty is returned when an agency's selector matches nothing.
var ErrSelectorEmpty = eris.New("scrape: selector matched no content")

// Clean scopes a page to selector (the whole <body> when empty) and strips
// navigation, scripts and ads. Every matching element is kept, in document
// order.
func Clean(page, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", eris.Wrap(err, "scrape: parse html")
	}

	scope := strings.TrimSpace(selector)
	if scope == "" {
		scope = "body"
	}
	sel := doc.Find(scope)
	if sel.Length() == 0 {
		return "", eris.Wrapf(ErrSelectorEmpty, "selector %q", scope)
	}

	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		s.Find(noiseSelector).Remove()
		var out string
		if scope == "body" {
			out, _ = s.Html()
		} else {
			out, _ = goquery.OuterHtml(s)
		}
		b.WriteString(out)
	})

	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "", eris.Wrapf(ErrSelectorEmpty, "selector %q", scope)
	}
	return cleaned, nil
}
