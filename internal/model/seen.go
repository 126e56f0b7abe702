package model

import "sort"

// SeenURLs maps an agency name to every listing URL observed for it in any
// past cycle. Agencies never share entries.
type SeenURLs map[string][]string

// Set returns the agency's URLs as a lookup set.
func (s SeenURLs) Set(agency string) map[string]struct{} {
	urls := s[agency]
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		set[u] = struct{}{}
	}
	return set
}

// Union returns a new SeenURLs holding every URL from s and other. Each
// agency's list is deduplicated and sorted, so the result is stable on disk.
func (s SeenURLs) Union(other SeenURLs) SeenURLs {
	out := make(SeenURLs, len(s)+len(other))
	for _, src := range []SeenURLs{s, other} {
		for agency, urls := range src {
			out[agency] = append(out[agency], urls...)
		}
	}
	for agency, urls := range out {
		out[agency] = dedupSorted(urls)
	}
	return out
}

// Total returns the number of URLs across all agencies.
func (s SeenURLs) Total() int {
	n := 0
	for _, urls := range s {
		n += len(urls)
	}
	return n
}

func dedupSorted(urls []string) []string {
	if len(urls) == 0 {
		return []string{}
	}
	sorted := append([]string(nil), urls...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, u := range sorted[1:] {
		if u != out[len(out)-1] {
			out = append(out, u)
		}
	}
	return out
}
