package evaluate

import (
	"fmt"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

const systemPrompt = `You analyze rental property detail pages from real-estate agency websites and decide whether the property matches a renter's criteria.

The page is given as a flattened outline of its HTML: one line per element with its tag and attributes, and the text it contains.

Rules:
- A property matches only if it meets ALL mandatory requirements in the criteria.
- Optional preferences never decide a match on their own.
- When a mandatory value (price, location, rooms) cannot be found on the page, say so in your reasoning and do not count it as met, unless the criteria say a missing value is acceptable.
- If the page is not a single rental property (an overview, a sold/let property, a property for sale), it does not match.

Return ONLY a JSON object, no other text:
{
  "matches": true or false,
  "reasoning": "Brief explanation of why it matches or doesn't match"
}`

func buildUserPrompt(criteria string, d model.PropertyDetail, flattened string) string {
	return fmt.Sprintf(`CRITERIA:
%s

AGENCY: %s
URL: %s

FLATTENED HTML CONTENT:
%s`, criteria, d.Agency, d.URL, flattened)
}
