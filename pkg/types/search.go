// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// Source identifiers accepted by the policy search aggregator.
const (
	SourceFederalRegister = "federal_register"
	SourceGovInfo         = "govinfo"
)

// SearchItem is one normalized entry in a policy search result list. Items
// that represent a failed source carry only Source, Error, and Meta.
type SearchItem struct {
	// Source identifies which upstream produced this item (e.g. "govinfo").
	Source string `json:"source" yaml:"source"`

	// Type is the upstream document type or collection code.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Date is the publication date (Federal Register) or issue date
	// (GovInfo) exactly as the upstream reported it.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Fields holds the remaining source-specific attributes.
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`

	Error *ErrorInfo    `json:"error,omitempty" yaml:"error,omitempty"`
	Meta  *UpstreamMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// UpstreamMeta carries the upstream response headers that explain a
// per-source failure.
type UpstreamMeta struct {
	RequestID          string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	RateLimitRemaining string `json:"rate_limit_remaining,omitempty" yaml:"rate_limit_remaining,omitempty"`
	RateLimitLimit     string `json:"rate_limit_limit,omitempty" yaml:"rate_limit_limit,omitempty"`
	RetryAfter         string `json:"retry_after,omitempty" yaml:"retry_after,omitempty"`
}

// SortSpec is one entry of a GovInfo "sorts" list.
type SortSpec struct {
	Field     string `json:"field" yaml:"field"`
	SortOrder string `json:"sortOrder" yaml:"sort_order"`
}

// UnmarshalJSON accepts "direction" as an alias for "sortOrder".
func (s *SortSpec) UnmarshalJSON(b []byte) error {
	var raw struct {
		Field     string `json:"field"`
		SortOrder string `json:"sortOrder"`
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.Field = raw.Field
	s.SortOrder = raw.SortOrder
	if s.SortOrder == "" {
		s.SortOrder = raw.Direction
	}
	return nil
}

// SearchData is the Data payload of a gov_policy_search envelope.
type SearchData struct {
	Query   string       `json:"query" yaml:"query"`
	Sources []string     `json:"sources" yaml:"sources"`
	Results []SearchItem `json:"results" yaml:"results"`
}

// GranuleIdentifier addresses one granule inside a GovInfo package.
type GranuleIdentifier struct {
	PackageID string `json:"package_id" yaml:"package_id"`
	GranuleID string `json:"granule_id" yaml:"granule_id"`
}

// Valid reports whether both identifiers are non-empty.
func (g GranuleIdentifier) Valid() bool {
	return g.PackageID != "" && g.GranuleID != ""
}
