// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the Federal Register and GovInfo",
	Long: `Search sends one query to every selected source concurrently and merges
the results newest first. A failing source does not fail the search: it
appears as a warning line (or an error entry in --json/--yaml output).

Use --save to write the query and its results to a YAML file, and
--from-file to re-run a saved query.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text query (or pass it as arguments)")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query: federal_register, govinfo (default both)")
	searchCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	searchCmd.Flags().Int("limit", policy.DefaultLimit, "maximum number of results")
	searchCmd.Flags().StringSlice("sort", nil, "GovInfo sort as field:order, e.g. publishdate:desc")
	searchCmd.Flags().Bool("json", false, "output the envelope as JSON")
	searchCmd.Flags().Bool("yaml", false, "output the envelope as YAML")
	searchCmd.Flags().String("save", "", "write the query and results to this YAML file")
	searchCmd.Flags().String("from-file", "", "re-run the query stored in a saved YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := searchRequestFromFlags(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	env := rt.deps.Aggregator.Search(cmd.Context(), req)

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := policy.WriteQueryFile(savePath, req, env); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", savePath)
	}

	if done, err := writeStructured(cmd, env); done || err != nil {
		return err
	}
	if !env.OK {
		return env.Error
	}
	policy.FormatTable(env.Data.(types.SearchData), os.Stdout)
	return nil
}

func searchRequestFromFlags(cmd *cobra.Command, args []string) (policy.SearchRequest, error) {
	if path, _ := cmd.Flags().GetString("from-file"); path != "" {
		qf, err := policy.ReadQueryFile(path)
		if err != nil {
			return policy.SearchRequest{}, err
		}
		return qf.Query.ToRequest(), nil
	}

	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return policy.SearchRequest{}, fmt.Errorf("provide a query as arguments or with --query")
	}

	sources, _ := cmd.Flags().GetStringSlice("sources")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	limit, _ := cmd.Flags().GetInt("limit")
	sortFlags, _ := cmd.Flags().GetStringSlice("sort")

	sorts, err := parseSorts(sortFlags)
	if err != nil {
		return policy.SearchRequest{}, err
	}
	return policy.SearchRequest{
		Query:     query,
		Sources:   sources,
		StartDate: from,
		EndDate:   to,
		Limit:     limit,
		Sorts:     sorts,
	}, nil
}

// parseSorts turns "field:order" flags into sort specs. The order defaults
// to desc.
func parseSorts(flags []string) ([]types.SortSpec, error) {
	var out []types.SortSpec
	for _, f := range flags {
		field, order, _ := strings.Cut(f, ":")
		if field == "" {
			return nil, fmt.Errorf("invalid --sort %q: want field:order", f)
		}
		if order == "" {
			order = "desc"
		}
		out = append(out, types.SortSpec{Field: field, SortOrder: order})
	}
	return out, nil
}

// writeStructured prints env as JSON or YAML when the matching flag is
// set, and reports whether it did.
func writeStructured(cmd *cobra.Command, env types.Envelope) (bool, error) {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return true, policy.FormatJSON(env, os.Stdout)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return true, policy.FormatYAML(env, os.Stdout)
	}
	return false, nil
}
