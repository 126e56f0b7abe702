package model

import "time"

// Listing is the result of scraping one agency listing page in one cycle.
// HTML is empty when the scrape failed.
type Listing struct {
	Agency    string    `json:"agency"`
	URL       string    `json:"url"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}

// Failed reports whether the scrape produced no usable content.
func (l Listing) Failed() bool {
	return l.HTML == ""
}

// CandidateURL is a newly seen URL pooled for classification.
type CandidateURL struct {
	URL       string `json:"url"`
	Agency    string `json:"agency"`
	AgencyURL string `json:"agency_url"`
}

// URLClassification is the oracle's verdict on a single candidate URL.
type URLClassification struct {
	URL             string `json:"url"`
	IsListingDetail bool   `json:"isListingDetail"`
	Confidence      int    `json:"confidence"`
}

// WorthFetching reports whether the classification clears the detail-fetch
// threshold.
func (c URLClassification) WorthFetching(minConfidence int) bool {
	return c.IsListingDetail && c.Confidence >= minConfidence
}

// PropertyDetail is a fetched detail page.
type PropertyDetail struct {
	URL       string    `json:"url"`
	Agency    string    `json:"agency"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}

// PropertyEvaluation is the evaluator's verdict on one detail page.
type PropertyEvaluation struct {
	Property  PropertyDetail `json:"property"`
	Matches   bool           `json:"matches"`
	Reasoning string         `json:"reasoning"`
}

// Match is one notification record: a matching property and the agency it
// was found on.
type Match struct {
	Agency     string             `json:"agency"`
	AgencyURL  string             `json:"agency_url"`
	URL        string             `json:"url"`
	Evaluation PropertyEvaluation `json:"evaluation"`
}
