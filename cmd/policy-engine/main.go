// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the policy-engine CLI.
// It serves the tool catalogue over HTTP and MCP, and exposes the same
// tools as subcommands for use from a shell.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/observe"
	"github.com/pdiddy/policy-engine/internal/secrets"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Resolved once per invocation in PersistentPreRunE.
var (
	cfg    types.Config
	logger *zap.Logger
)

// upstreamEnv maps config keys to the unprefixed variable names the
// upstream clients document.
var upstreamEnv = map[string]string{
	"govinfo.api_key": "GOVINFO_API_KEY",
	"jira.base_url":   "JIRA_BASE_URL",
	"jira.email":      "JIRA_EMAIL",
	"jira.api_token":  "JIRA_API_TOKEN",
}

// rootCmd is the base command for the policy-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "policy-engine",
	Short: "Search U.S. government policy sources and issue trackers",
	Long: `policy-engine aggregates searches over the Federal Register and GovInfo,
fetches document summaries and granule text, and finds the Jira issue
closest to a description. Every capability is a named tool returning a
uniform JSON envelope.

Run "policy-engine serve" to expose the tools over HTTP (POST /tool) and
MCP (/mcp), or call them directly with the search, summary, issues, and
call subcommands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		if applied := secrets.Apply(&c, s); len(applied) > 0 {
			sort.Strings(applied)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", applied)
		}

		l, err := observe.NewLogger(c.Log.Level, c.Log.Development)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./policy-engine.yaml or ~/.config/policy-engine/policy-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of key files (govinfo-api-key, jira-*)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	loadDotenv(envFile)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("policy-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "policy-engine"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultConfig())
	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadDotenv exports the variables of a dotenv file that are not already
// set in the process environment. A missing file is ignored.
func loadDotenv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not read %s: %v\n", path, err)
		return
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		_ = os.Setenv(name, v.GetString(key))
	}
}

// setDefaults registers every default so AutomaticEnv and Unmarshal see
// the full key set.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.content_timeout", d.HTTP.ContentTimeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_attempts", d.HTTP.MaxAttempts)
	v.SetDefault("govinfo.api_key", d.GovInfo.APIKey)
	v.SetDefault("govinfo.base_url", d.GovInfo.BaseURL)
	v.SetDefault("federal_register.base_url", d.FederalRegister.BaseURL)
	v.SetDefault("jira.base_url", d.Jira.BaseURL)
	v.SetDefault("jira.email", d.Jira.Email)
	v.SetDefault("jira.api_token", d.Jira.APIToken)
	v.SetDefault("discovery.mode", string(d.Discovery.Mode))
	v.SetDefault("discovery.url", d.Discovery.URL)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("calllog.path", d.CallLog.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// bindEnv maps POLICY_ENGINE_<SECTION>_<KEY> onto every config key and
// additionally accepts the unprefixed upstream variable names.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("POLICY_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range upstreamEnv {
		_ = v.BindEnv(key, "POLICY_ENGINE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

// loadConfig decodes the merged viper settings into a Config.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	if c.HTTP.MaxAttempts < 1 {
		c.HTTP.MaxAttempts = 1
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
