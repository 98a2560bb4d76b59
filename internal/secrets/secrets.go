// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: govinfo-api-key, jira-base-url, jira-email, jira-api-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// Key file names understood by Apply.
const (
	GovInfoAPIKey = "govinfo-api-key"
	JiraBaseURL   = "jira-base-url"
	JiraEmail     = "jira-email"
	JiraAPIToken  = "jira-api-token"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply copies known secrets into cfg. Values already set by flags,
// environment, or config file win; a secret only fills an empty field.
// It returns the names of the secrets that were applied.
func Apply(cfg *types.Config, secrets map[string]string) []string {
	targets := []struct {
		key   string
		field *string
	}{
		{GovInfoAPIKey, &cfg.GovInfo.APIKey},
		{JiraBaseURL, &cfg.Jira.BaseURL},
		{JiraEmail, &cfg.Jira.Email},
		{JiraAPIToken, &cfg.Jira.APIToken},
	}

	var applied []string
	for _, t := range targets {
		v, ok := secrets[t.key]
		if !ok || *t.field != "" {
			continue
		}
		*t.field = v
		applied = append(applied, t.key)
	}
	return applied
}
