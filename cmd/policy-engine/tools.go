// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/internal/tools"
	"github.com/pdiddy/policy-engine/pkg/types"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools",
	Long: `Tools lists the tool catalogue. With --remote (or discovery.mode: remote)
the list is fetched from a running server's MCP endpoint instead of the
local registry.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().String("remote", "", "MCP endpoint to list tools from, e.g. http://127.0.0.1:8000/mcp")
	toolsCmd.Flags().Bool("json", false, "output the tool specs as JSON")

	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	dc := cfg.Discovery
	if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
		dc = types.DiscoveryConfig{Mode: types.DiscoveryRemote, URL: remote}
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	discovery, err := tools.NewDiscovery(dc, rt.registry)
	if err != nil {
		return err
	}
	specs, err := discovery.ListTools(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return policy.FormatJSON(specs, os.Stdout)
	}
	fmt.Fprintf(os.Stdout, "%-40s  %s\n", "Tool", "Description")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, s := range specs {
		desc, _, _ := strings.Cut(s.Description, "\n")
		fmt.Fprintf(os.Stdout, "%-40s  %s\n", s.Name, desc)
	}
	fmt.Fprintf(os.Stdout, "\n%d tools\n", len(specs))
	return nil
}
