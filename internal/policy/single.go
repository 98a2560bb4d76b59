// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// ItemsData is the Data payload of the single-source search tools.
type ItemsData struct {
	Items []types.SearchItem `json:"items" yaml:"items"`
}

// SearchFederalRegister runs q against the Federal Register alone. Unlike
// the Aggregator, an upstream failure fails the whole envelope.
func SearchFederalRegister(ctx context.Context, fr *FederalRegister, q Query) types.Envelope {
	start := time.Now()
	if strings.TrimSpace(q.Text) == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "query required"), types.StampedMeta(start))
	}
	q.Limit = max(q.Limit, 1)

	items, err := fr.Fetch(ctx, q)
	if err != nil {
		return failure(err, start)
	}
	meta := types.StampedMeta(start)
	meta.Source = types.SourceFederalRegister
	return types.Success(ItemsData{Items: nonNil(items)}, meta)
}

// SearchGovInfo runs q against GovInfo alone. The envelope meta carries the
// upstream offset mark and total count.
func SearchGovInfo(ctx context.Context, g *GovInfo, q Query) types.Envelope {
	start := time.Now()
	if strings.TrimSpace(q.Text) == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "query required"), types.StampedMeta(start))
	}
	q.Limit = max(q.Limit, 1)

	page, err := g.Search(ctx, q, firstOffsetMark)
	if err != nil {
		return failure(err, start)
	}
	meta := types.StampedMeta(start)
	meta.Source = types.SourceGovInfo
	meta.OffsetMark = page.OffsetMark
	count := page.Count
	meta.Count = &count
	return types.Success(ItemsData{Items: nonNil(page.Items)}, meta)
}

// failure classifies err into a whole-call failed envelope.
func failure(err error, start time.Time) types.Envelope {
	info, _ := Classify(err)
	return types.Failure(info, types.StampedMeta(start))
}

func nonNil(items []types.SearchItem) []types.SearchItem {
	if items == nil {
		return []types.SearchItem{}
	}
	return items
}
