// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"

	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/pkg/types"
)

type searchInput struct {
	Query     string           `json:"query"`
	Sources   []string         `json:"sources"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Limit     *int             `json:"limit"`
	Sorts     []types.SortSpec `json:"sorts"`
}

func (in searchInput) limit() int {
	if in.Limit == nil {
		return policy.DefaultLimit
	}
	return *in.Limit
}

func (in searchInput) query() policy.Query {
	return policy.Query{
		Text:      in.Query,
		Limit:     in.limit(),
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Sorts:     in.Sorts,
	}
}

type granuleSearchInput struct {
	Query      string `json:"query"`
	PageSize   *int   `json:"page_size"`
	OffsetMark string `json:"offset_mark"`
}

func (in granuleSearchInput) pageSize() int {
	if in.PageSize == nil {
		return policy.DefaultGranulePageSize
	}
	return *in.PageSize
}

type granuleSummaryInput struct {
	PackageID string `json:"package_id"`
	GranuleID string `json:"granule_id"`
	Format    string `json:"format"`
}

type documentSummaryInput struct {
	DocumentID string `json:"document_id"`
	Format     string `json:"format"`
	Fmt        string `json:"fmt"`
}

func (in documentSummaryInput) format() string {
	if in.Format != "" {
		return in.Format
	}
	return in.Fmt
}

var (
	sortSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field":     str("sort field, e.g. score or dateIssued"),
			"sortOrder": str("ASC or DESC"),
		},
	}
	dateRangeProps = map[string]any{
		"start_date": str("earliest publication date, YYYY-MM-DD"),
		"end_date":   str("latest publication date, YYYY-MM-DD"),
	}
)

func searchProps(extra map[string]any) map[string]any {
	props := map[string]any{
		"query": str("free-text search query"),
		"limit": integer("maximum number of results (default 5)"),
		"sorts": array(sortSchema, "GovInfo sort order"),
	}
	for k, v := range dateRangeProps {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// PolicyTools returns the policy search and summary tools backed by d.
func PolicyTools(d Deps) []Tool {
	granuleSummary := typed(func(ctx context.Context, in granuleSummaryInput) types.Envelope {
		return d.Summaries.GranuleSummary(ctx, in.PackageID, in.GranuleID, in.Format)
	})
	granuleSummarySchema := object(map[string]any{
		"package_id": str("GovInfo package id, e.g. FR-2025-01-02"),
		"granule_id": str("GovInfo granule id, e.g. 2024-31234"),
		"format":     str("htm (default), xml, or pdf"),
	}, "package_id", "granule_id")

	return []Tool{
		{
			Spec: Spec{
				Name:        "gov_policy_search",
				Description: "Search Federal Register and GovInfo together and return one date-ordered list.",
				InputSchema: object(searchProps(map[string]any{
					"sources": array(str("source name"), "sources to query: federal_register, govinfo (default federal_register)"),
				}), "query"),
			},
			Handler: typed(func(ctx context.Context, in searchInput) types.Envelope {
				return d.Aggregator.Search(ctx, policy.SearchRequest{
					Query:     in.Query,
					Sources:   in.Sources,
					StartDate: in.StartDate,
					EndDate:   in.EndDate,
					Limit:     in.limit(),
					Sorts:     in.Sorts,
				})
			}),
		},
		{
			Spec: Spec{
				Name:        "federal_register_search",
				Description: "Search Federal Register documents.",
				InputSchema: object(searchProps(nil), "query"),
			},
			Handler: typed(func(ctx context.Context, in searchInput) types.Envelope {
				return policy.SearchFederalRegister(ctx, d.FederalRegister, in.query())
			}),
		},
		{
			Spec: Spec{
				Name:        "govinfo_search",
				Description: "Search GovInfo packages and granules.",
				InputSchema: object(searchProps(nil), "query"),
			},
			Handler: typed(func(ctx context.Context, in searchInput) types.Envelope {
				return policy.SearchGovInfo(ctx, d.GovInfo, in.query())
			}),
		},
		{
			Spec: Spec{
				Name:        "govinfo_search_granules",
				Description: "Search GovInfo and return only results that identify a granule.",
				InputSchema: object(map[string]any{
					"query":       str("free-text search query"),
					"page_size":   integer("results per page, 1-50 (default 10)"),
					"offset_mark": str("paging cursor from a previous call (default *)"),
				}, "query"),
			},
			Handler: typed(func(ctx context.Context, in granuleSearchInput) types.Envelope {
				return policy.SearchGranules(ctx, d.GovInfo, in.Query, in.pageSize(), in.OffsetMark)
			}),
		},
		{
			Spec: Spec{
				Name:        "gov_policy_summary",
				Description: "Fetch a GovInfo granule summary and its htm or xml text, or its pdf link.",
				InputSchema: granuleSummarySchema,
			},
			Handler: granuleSummary,
		},
		{
			Spec: Spec{
				Name:        "govinfo_download_granule_text",
				Description: "Alias of gov_policy_summary.",
				InputSchema: granuleSummarySchema,
			},
			Handler: granuleSummary,
		},
		{
			Spec: Spec{
				Name:        "federal_register_get_document_summary",
				Description: "Fetch a Federal Register document record and its htm or xml body.",
				InputSchema: object(map[string]any{
					"document_id": str("Federal Register document number"),
					"format":      str("htm (default), xml, or pdf"),
					"fmt":         str("alias of format"),
				}, "document_id"),
			},
			Handler: typed(func(ctx context.Context, in documentSummaryInput) types.Envelope {
				return d.Summaries.DocumentSummary(ctx, in.DocumentID, in.format())
			}),
		},
	}
}
