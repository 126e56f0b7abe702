package pipeline

import (
	"github.com/JodusNodus/apartment-eagle/internal/diff"
	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// AgencyBatch is the set of classified URLs to fetch for one agency.
type AgencyBatch struct {
	Agency model.Agency
	Labels []model.URLClassification
}

// Pool flattens per-agency diffs into one candidate list. A URL reported by
// more than one agency is kept once, under the first agency in diffs order.
func Pool(diffs []diff.Result, agencies model.AgencySet) []model.CandidateURL {
	seen := make(map[string]bool)
	var out []model.CandidateURL
	for _, d := range diffs {
		agencyURL := agencies[d.Agency].URL
		for _, u := range d.New {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, model.CandidateURL{URL: u, Agency: d.Agency, AgencyURL: agencyURL})
		}
	}
	return out
}

// GroupByAgency assigns each classification back to the agency its URL was
// pooled under. Agencies appear in candidate order; labels for URLs that
// were never pooled are dropped.
func GroupByAgency(candidates []model.CandidateURL, labels []model.URLClassification, agencies model.AgencySet) []AgencyBatch {
	owner := make(map[string]string, len(candidates))
	var order []string
	index := make(map[string]int)
	for _, c := range candidates {
		owner[c.URL] = c.Agency
		if _, ok := index[c.Agency]; !ok {
			index[c.Agency] = len(order)
			order = append(order, c.Agency)
		}
	}

	grouped := make([][]model.URLClassification, len(order))
	for _, l := range labels {
		name, ok := owner[l.URL]
		if !ok {
			continue
		}
		i := index[name]
		grouped[i] = append(grouped[i], l)
	}

	var out []AgencyBatch
	for i, name := range order {
		if len(grouped[i]) == 0 {
			continue
		}
		out = append(out, AgencyBatch{Agency: agencies[name], Labels: grouped[i]})
	}
	return out
}

// ToMatches turns matching evaluations for agency into notification records.
func ToMatches(agency model.Agency, evals []model.PropertyEvaluation) []model.Match {
	var out []model.Match
	for _, ev := range evals {
		if !ev.Matches {
			continue
		}
		out = append(out, model.Match{
			Agency:     agency.Name,
			AgencyURL:  agency.URL,
			URL:        ev.Property.URL,
			Evaluation: ev,
		})
	}
	return out
}
