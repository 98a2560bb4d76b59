// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"

	"github.com/pdiddy/policy-engine/internal/issues"
	"github.com/pdiddy/policy-engine/pkg/types"
)

type closestInput struct {
	Query         string   `json:"query"`
	ProjectKey    string   `json:"project_key"`
	Mode          string   `json:"mode"`
	MaxResults    int      `json:"max_results"`
	NextPageToken string   `json:"next_page_token"`
	Fields        []string `json:"fields"`
}

// IssueTools returns the issue tracker tools backed by d.
func IssueTools(d Deps) []Tool {
	return []Tool{{
		Spec: Spec{
			Name:        "jira_search_closest",
			Description: "Find the Jira issue whose summary and description best match a free-text description.",
			InputSchema: object(map[string]any{
				"query":           str("free-text description of the issue"),
				"project_key":     str("restrict to one project"),
				"mode":            str("text (default) or description"),
				"max_results":     integer("candidates to fetch, 1-50 (default 10)"),
				"next_page_token": str("paging token from a previous call"),
				"fields":          array(str("field name"), "extra Jira fields to request"),
			}, "query"),
		},
		Handler: typed(func(ctx context.Context, in closestInput) types.Envelope {
			return d.Jira.SearchClosest(ctx, issues.SearchParams{
				Query:         in.Query,
				ProjectKey:    in.ProjectKey,
				Mode:          in.Mode,
				MaxResults:    in.MaxResults,
				NextPageToken: in.NextPageToken,
				Fields:        in.Fields,
			})
		}),
	}}
}
