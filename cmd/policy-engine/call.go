// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/internal/tools"
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [input-json]",
	Short: "Invoke a tool in-process and print its envelope",
	Long: `Call runs one tool through the same invoker the server uses and prints
the envelope as JSON. The input is a JSON object given as the second
argument, or read from stdin when the argument is "-". It defaults to {}.

Exit status is non-zero when the envelope is not ok.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().Bool("yaml", false, "print the envelope as YAML")

	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	input := json.RawMessage("{}")
	if len(args) == 2 {
		raw := []byte(args[1])
		if args[1] == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			raw = b
		}
		if !json.Valid(raw) {
			return fmt.Errorf("input is not valid JSON")
		}
		input = raw
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	env, err := rt.invoker.Invoke(cmd.Context(), args[0], input)
	if err != nil && !errors.Is(err, tools.ErrUnknownTool) {
		return err
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		err = policy.FormatYAML(env, os.Stdout)
	} else {
		err = policy.FormatJSON(env, os.Stdout)
	}
	if err != nil {
		return err
	}
	if !env.OK {
		return fmt.Errorf("%s failed: %s", args[0], env.Error.Code)
	}
	return nil
}
