// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/pkg/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [package-id granule-id]",
	Short: "Fetch a GovInfo granule or Federal Register document summary",
	Long: `Summary fetches the summary of a GovInfo granule (two arguments) or, with
--document, a Federal Register document. For htm and xml the rendition is
downloaded and printed; for pdf only the download link is printed.

GovInfo granules need an API key (GOVINFO_API_KEY or .secrets/govinfo-api-key).`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().String("format", policy.FormatHTM, "rendition: htm, xml, or pdf")
	summaryCmd.Flags().String("document", "", "Federal Register document number instead of a granule")
	summaryCmd.Flags().Bool("json", false, "output the envelope as JSON")
	summaryCmd.Flags().Bool("yaml", false, "output the envelope as YAML")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	documentID, _ := cmd.Flags().GetString("document")
	if documentID == "" && len(args) != 2 {
		return fmt.Errorf("provide a package id and a granule id, or --document")
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	var env types.Envelope
	if documentID != "" {
		env = rt.deps.Summaries.DocumentSummary(cmd.Context(), documentID, format)
	} else {
		env = rt.deps.Summaries.GranuleSummary(cmd.Context(), args[0], args[1], format)
	}

	if done, err := writeStructured(cmd, env); done || err != nil {
		return err
	}
	if !env.OK {
		return env.Error
	}

	var link string
	var content *string
	switch d := env.Data.(type) {
	case policy.GranuleSummaryData:
		link, content = d.DownloadURL, d.Content
	case policy.DocumentSummaryData:
		link, content = d.DownloadURL, d.Content
	}
	if content == nil {
		fmt.Println(link)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Source: %s\n", link)
	fmt.Println(*content)
	return nil
}
