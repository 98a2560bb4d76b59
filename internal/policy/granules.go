// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// Granule search page-size bounds.
const (
	minGranulePageSize     = 1
	maxGranulePageSize     = 50
	DefaultGranulePageSize = 10
)

// GranuleItem is one addressable granule found by a GovInfo search.
type GranuleItem struct {
	PackageID  string `json:"package_id" yaml:"package_id"`
	GranuleID  string `json:"granule_id" yaml:"granule_id"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	ResultLink string `json:"result_link,omitempty" yaml:"result_link,omitempty"`
}

// GranuleSearchData is the Data payload of govinfo_search_granules.
type GranuleSearchData struct {
	Items          []GranuleItem `json:"items" yaml:"items"`
	NextOffsetMark string        `json:"next_offset_mark,omitempty" yaml:"next_offset_mark,omitempty"`
}

// SearchGranules runs a score-ordered GovInfo search and keeps only records
// that carry both a package and a granule id, so every item can be passed
// straight to a granule summary fetch. pageSize is clamped to 1..50.
func SearchGranules(ctx context.Context, g *GovInfo, query string, pageSize int, offsetMark string) types.Envelope {
	start := time.Now()
	if strings.TrimSpace(query) == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "query required"), types.StampedMeta(start))
	}
	if g.APIKey == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "%s", ErrMissingAPIKey), types.StampedMeta(start))
	}
	pageSize = min(max(pageSize, minGranulePageSize), maxGranulePageSize)

	q := Query{
		Text:  query,
		Limit: pageSize,
		Sorts: []types.SortSpec{{Field: "score", SortOrder: "DESC"}},
	}
	page, err := g.Search(ctx, q, offsetMark)
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			return types.Failure(types.NewError(types.CodeBadInput, "%s", err), types.StampedMeta(start))
		}
		return failure(err, start)
	}

	items := []GranuleItem{}
	for _, rec := range page.Records {
		id := types.GranuleIdentifier{
			PackageID: firstString(rec, packageIDKeys...),
			GranuleID: firstString(rec, granuleIDKeys...),
		}
		if !id.Valid() {
			continue
		}
		items = append(items, GranuleItem{
			PackageID:  id.PackageID,
			GranuleID:  id.GranuleID,
			Title:      firstString(rec, "title"),
			Collection: firstString(rec, collectionKeys...),
			ResultLink: firstString(rec, resultLinkKeys...),
		})
	}

	meta := types.StampedMeta(start)
	meta.Source = types.SourceGovInfo
	return types.Success(GranuleSearchData{Items: items, NextOffsetMark: page.OffsetMark}, meta)
}
