// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/issues"
)

var issuesCmd = &cobra.Command{
	Use:   "issues [description]",
	Short: "Find the Jira issue closest to a description",
	Long: `Issues runs one JQL text search for the description and ranks the
returned issues by similarity. Requires JIRA_BASE_URL, JIRA_EMAIL, and
JIRA_API_TOKEN (or the matching .secrets/ files).`,
	RunE: runIssues,
}

func init() {
	issuesCmd.Flags().String("project", "", "restrict to a project key")
	issuesCmd.Flags().String("mode", issues.ModeText, "match on text or description")
	issuesCmd.Flags().Int("max-results", issues.DefaultMaxResults, "candidates to fetch (1-50)")
	issuesCmd.Flags().String("page-token", "", "continue from a previous nextPageToken")
	issuesCmd.Flags().StringSlice("fields", nil, "extra Jira fields to request")
	issuesCmd.Flags().Bool("json", false, "output the envelope as JSON")
	issuesCmd.Flags().Bool("yaml", false, "output the envelope as YAML")

	rootCmd.AddCommand(issuesCmd)
}

func runIssues(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a description to match")
	}
	project, _ := cmd.Flags().GetString("project")
	mode, _ := cmd.Flags().GetString("mode")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	token, _ := cmd.Flags().GetString("page-token")
	fields, _ := cmd.Flags().GetStringSlice("fields")

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	env := rt.deps.Jira.SearchClosest(cmd.Context(), issues.SearchParams{
		Query:         strings.Join(args, " "),
		ProjectKey:    project,
		Mode:          mode,
		MaxResults:    maxResults,
		NextPageToken: token,
		Fields:        fields,
	})

	if done, err := writeStructured(cmd, env); done || err != nil {
		return err
	}
	if !env.OK {
		return env.Error
	}

	data := env.Data.(issues.ClosestData)
	if len(data.Ranked) == 0 {
		fmt.Println("No issues found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-6s  %-12s  %-14s  %s\n", "Score", "Key", "Status", "Summary")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range data.Ranked {
		fmt.Fprintf(os.Stdout, "%-6.3f  %-12s  %-14s  %s\n", r.Score, r.Issue.Key, r.Issue.Status, r.Issue.Summary)
	}
	if data.NextPageToken != nil && *data.NextPageToken != "" {
		fmt.Fprintf(os.Stdout, "\nmore results: --page-token %s\n", *data.NextPageToken)
	}
	return nil
}
