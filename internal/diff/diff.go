// Package diff compares one agency's current listing URLs with the URLs seen
// in earlier cycles.
package diff

import "sort"

// Result is the outcome of comparing an agency's current URLs against its
// history. Removed is informational only.
type Result struct {
	Agency  string
	New     []string
	Removed []string
}

// Changed reports whether any URL appeared or disappeared.
func (r Result) Changed() bool {
	return len(r.New) > 0 || len(r.Removed) > 0
}

// Compute returns current − previous as New (in current's order) and
// previous − current as Removed (sorted, since previous is unordered).
func Compute(agency string, current []string, previous map[string]struct{}) Result {
	res := Result{Agency: agency}

	cur := make(map[string]struct{}, len(current))
	for _, u := range current {
		if _, dup := cur[u]; dup {
			continue
		}
		cur[u] = struct{}{}
		if _, ok := previous[u]; !ok {
			res.New = append(res.New, u)
		}
	}

	for u := range previous {
		if _, ok := cur[u]; !ok {
			res.Removed = append(res.Removed, u)
		}
	}
	sort.Strings(res.Removed)
	return res
}

// Set builds a lookup set from a URL slice.
func Set(urls []string) map[string]struct{} {
	s := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		s[u] = struct{}{}
	}
	return s
}
