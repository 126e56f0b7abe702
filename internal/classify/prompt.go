package classify

import (
	"fmt"
	"strings"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

const systemPrompt = `You are analyzing URLs from multiple rental agency websites to identify which ones are likely to be individual apartment/property listing detail pages.

TASK: For each URL you are given, determine if it's likely to be a detail page for an individual property listing.

URLs that are likely to be detail pages typically:
- Contain property-specific identifiers (IDs, reference numbers)
- Have paths like /property/, /listing/, /detail/, /woning/, /appartement/, /pand/
- Include property addresses or street names
- Have longer, more specific paths

URLs that are NOT detail pages typically:
- Are main listing/search pages
- Are contact/about/privacy pages
- Are category/filter pages
- Are static assets (CSS, JS, images)
- Are pagination links
- Are search result pages

RESPONSE FORMAT:
Return a JSON array with one object per URL, for example:
[
  {
    "url": "https://example.com/property/123",
    "isListingDetail": true,
    "confidence": 8
  }
]
confidence is an integer from 0 (certainly not a detail page) to 10 (certainly a detail page).

Return ONLY the JSON array, with no additional text.`

// buildUserPrompt lists the agencies present in the batch, then the
// numbered candidates tagged with their agency.
func buildUserPrompt(batch []model.CandidateURL) string {
	type group struct {
		url   string
		count int
	}
	var order []string
	groups := make(map[string]*group)
	for _, c := range batch {
		g, ok := groups[c.Agency]
		if !ok {
			g = &group{url: c.AgencyURL}
			groups[c.Agency] = g
			order = append(order, c.Agency)
		}
		g.count++
	}

	var b strings.Builder
	b.WriteString("AGENCY CONTEXTS:\n")
	for _, name := range order {
		fmt.Fprintf(&b, "%s: %s (%d URLs)\n", name, groups[name].url, groups[name].count)
	}
	b.WriteString("\nURLS TO CLASSIFY:\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, c.Agency, c.URL)
	}
	return b.String()
}
