package model

import (
	"net/url"
	"strings"
)

// Agency is one configured listing source.
type Agency struct {
	Name              string `yaml:"name" mapstructure:"name" json:"name"`
	URL               string `yaml:"url" mapstructure:"url" json:"url"`
	Selector          string `yaml:"selector" mapstructure:"selector" json:"selector,omitempty"`
	RequiresRendering bool   `yaml:"requires_rendering" mapstructure:"requires_rendering" json:"requires_rendering,omitempty"`
}

// BaseURL returns scheme://host of the agency listing page, or "" if the
// configured URL does not parse as an absolute URL.
func (a Agency) BaseURL() string {
	u, err := url.Parse(strings.TrimSpace(a.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// AgencySet indexes agencies by name.
type AgencySet map[string]Agency

// NewAgencySet builds an AgencySet from an ordered agency list. Later
// duplicates are ignored; config validation rejects them before this point.
func NewAgencySet(agencies []Agency) AgencySet {
	set := make(AgencySet, len(agencies))
	for _, a := range agencies {
		if _, ok := set[a.Name]; ok {
			continue
		}
		set[a.Name] = a
	}
	return set
}
