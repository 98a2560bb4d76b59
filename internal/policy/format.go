// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// FormatTable writes search results as a human-readable table to w. Error
// entries are listed after the table.
func FormatTable(data types.SearchData, w io.Writer) {
	var rows, failed []types.SearchItem
	for _, it := range data.Results {
		if it.Error != nil {
			failed = append(failed, it)
			continue
		}
		rows = append(rows, it)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No results found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-60s  %-10s  %-16s  %s\n", "Rank", "Title", "Date", "Source", "Type")
		fmt.Fprintln(w, strings.Repeat("-", 110))
		for i, it := range rows {
			fmt.Fprintf(w, "%-4d  %-60s  %-10s  %-16s  %s\n",
				i+1, truncateText(it.Title, 60), truncateText(it.Date, 10), it.Source, it.Type)
		}
		fmt.Fprintf(w, "\n%d results\n", len(rows))
	}

	for _, line := range SourceErrors(failed) {
		fmt.Fprintf(w, "warning: %s\n", line)
	}
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatYAML writes v as YAML to w.
func FormatYAML(v any, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
