// Package extract pulls candidate property URLs out of an agency's listing
// page HTML.
package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// hrefRe matches any href attribute value regardless of the containing tag.
var hrefRe = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// excludeRes reject common non-listing pages, static assets, non-web schemes
// and fragment references. They run against the absolute URL.
var excludeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/contact`),
	regexp.MustCompile(`(?i)/about`),
	regexp.MustCompile(`(?i)/privacy`),
	regexp.MustCompile(`(?i)/terms`),
	regexp.MustCompile(`(?i)/cookies`),
	regexp.MustCompile(`(?i)/login`),
	regexp.MustCompile(`(?i)/register`),
	regexp.MustCompile(`(?i)/search`),
	regexp.MustCompile(`(?i)/filter`),
	regexp.MustCompile(`(?i)/sort`),
	regexp.MustCompile(`(?i)\.(css|js|png|jpg|jpeg|gif|svg|ico|pdf)$`),
	regexp.MustCompile(`(?i)mailto:`),
	regexp.MustCompile(`(?i)tel:`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`#`),
}

// Extractor turns listing-page HTML into a deduplicated list of absolute
// candidate URLs.
type Extractor struct {
	extra *PathMatcher
}

// New creates an Extractor. excludePaths are additional glob patterns
// applied on top of the built-in exclusion list.
func New(excludePaths []string) *Extractor {
	return &Extractor{extra: NewPathMatcher(excludePaths)}
}

// URLs scans body for href values, resolves them against baseURL and returns
// the surviving URLs in first-seen order. Malformed hrefs are skipped. An
// unusable baseURL yields no URLs.
func (e *Extractor) URLs(body, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		abs, ok := Normalize(m[1], base)
		if !ok || e.Excluded(abs) {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// Excluded reports whether an absolute URL is filtered out as a non-listing
// link.
func (e *Extractor) Excluded(abs string) bool {
	for _, re := range excludeRes {
		if re.MatchString(abs) {
			return true
		}
	}
	return e.extra.Match(abs)
}

// Normalize resolves href to an absolute URL rooted at base's scheme and host:
//
//	"/listing/42"  -> scheme://host/listing/42
//	"//cdn.x/y"    -> scheme://cdn.x/y
//	"foo/bar"      -> scheme://host/foo/bar (host root, not the base path)
//	"https://..."  -> unchanged
//
// Non-web schemes (mailto:, tel:) are returned as-is so the exclusion list
// can reject them. It reports false when the result is not a usable URL.
func Normalize(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(html.UnescapeString(href))
	if href == "" {
		return "", false
	}
	root := base.Scheme + "://" + base.Host

	var abs string
	switch {
	case strings.HasPrefix(href, "//"):
		abs = base.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		abs = root + href
	case hasScheme(href):
		abs = href
	default:
		abs = root + "/" + href
	}

	u, err := url.Parse(abs)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", false
		}
	case "mailto", "tel", "javascript":
	default:
		return "", false
	}
	return abs, true
}

func hasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return false
	}
	for j, c := range s[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
