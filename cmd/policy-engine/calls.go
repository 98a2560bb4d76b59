// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/calllog"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "List recorded tool calls",
	Long: `Calls reads the SQLite tool call log written by "serve --calllog" (or
calllog.path in the config file), newest first.`,
	RunE: runCalls,
}

func init() {
	callsCmd.Flags().String("path", "", "call log database (default calllog.path)")
	callsCmd.Flags().String("tool", "", "only calls whose tool name contains this")
	callsCmd.Flags().Bool("failed", false, "only failed calls")
	callsCmd.Flags().Int("limit", 50, "maximum number of calls")
	callsCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(callsCmd)
}

func runCalls(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfg.CallLog.Path
	}
	if path == "" {
		return fmt.Errorf("no call log configured: set calllog.path or pass --path")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("call log %s: %w", path, err)
	}

	tool, _ := cmd.Flags().GetString("tool")
	failed, _ := cmd.Flags().GetBool("failed")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	store, err := calllog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), calllog.Filter{Tool: tool, FailedOnly: failed, Limit: limit})
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		return calllog.ExportYAML(entries, os.Stdout)
	case "json":
		return calllog.ExportJSON(entries, os.Stdout)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or json", format)
	}

	if len(entries) == 0 {
		fmt.Println("No calls recorded.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-36s  %-4s  %-20s  %s\n", "Time", "Tool", "OK", "Code", "Duration")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, e := range entries {
		ok := "yes"
		if !e.OK {
			ok = "no"
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-36s  %-4s  %-20s  %dms\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Tool, ok, e.Code, e.DurationMS)
	}
	fmt.Fprintf(os.Stdout, "\n%d calls\n", len(entries))
	return nil
}
