// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package policy searches government policy sources (the Federal Register
// and GovInfo), normalizes their records into one item schema, and fetches
// document and granule summaries.
package policy

import (
	"context"
	"strings"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// Source searches one upstream policy API. Each adapter maps its records to
// SearchItems and returns upstream failures as errors; the Aggregator turns
// them into per-source error entries.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]types.SearchItem, error)
}

// Query holds the normalized search parameters passed to every Source.
type Query struct {
	Text string

	// Limit is the page size requested from the upstream.
	Limit int

	// StartDate and EndDate are optional YYYY-MM-DD bounds.
	StartDate string
	EndDate   string

	// Sorts is passed through to sources that support it (GovInfo).
	Sorts []types.SortSpec
}

// allowedSources is the source allow-list. The first entry is the default.
var allowedSources = []string{types.SourceFederalRegister, types.SourceGovInfo}

// ResolveSources trims and lower-cases names, drops anything outside the
// allow-list, and removes duplicates while keeping first-seen order. An
// empty result falls back to the Federal Register.
func ResolveSources(names []string) []string {
	var out []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if !allowed(n) || contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return []string{allowedSources[0]}
	}
	return out
}

func allowed(name string) bool {
	return contains(allowedSources, name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
