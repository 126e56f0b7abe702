package extract

import (
	"net/url"
	"path"
	"strings"
)

// PathMatcher filters URLs on glob-style path patterns supplied through
// extract.exclude_paths. It complements the built-in exclusion list for
// agencies whose sites carry extra non-listing sections ("/nieuws/*",
// "/*/blog/*").
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher lower-cases the patterns once. A nil or empty slice matches
// nothing.
func NewPathMatcher(patterns []string) *PathMatcher {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(p))
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// Match reports whether the path of rawURL matches any pattern. Unparsable
// URLs never match; the extractor rejects them separately.
func (m *PathMatcher) Match(rawURL string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchSegmented(pattern, p) {
			return true
		}
	}
	return false
}

// matchSegmented is path.Match plus a prefix rule so "/nieuws/*" also
// matches "/nieuws/2024/05/item".
func matchSegmented(pattern, urlPath string) bool {
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
