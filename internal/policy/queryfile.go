// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/policy-engine/pkg/types"
)

// QueryFile is the on-disk representation of an aggregated search and its
// results, so a search can be reviewed later without re-querying upstreams.
type QueryFile struct {
	Query   QueryParams        `yaml:"query"`
	Results []types.SearchItem `yaml:"results"`
	Summary QuerySummary       `yaml:"summary"`
}

// QueryParams stores the search request in a serializable form.
type QueryParams struct {
	Text      string           `yaml:"text"`
	Sources   []string         `yaml:"sources"`
	StartDate string           `yaml:"start_date,omitempty"`
	EndDate   string           `yaml:"end_date,omitempty"`
	Limit     int              `yaml:"limit"`
	Sorts     []types.SortSpec `yaml:"sorts,omitempty"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total        int       `yaml:"total"`
	SourceErrors []string  `yaml:"source_errors,omitempty"`
	RequestID    string    `yaml:"request_id"`
	Timestamp    time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves req and the data of a successful search envelope to
// a YAML file.
func WriteQueryFile(path string, req SearchRequest, env types.Envelope) error {
	data, ok := env.Data.(types.SearchData)
	if !env.OK || !ok {
		return fmt.Errorf("search did not succeed; nothing to save")
	}

	qf := QueryFile{
		Query: QueryParams{
			Text:      req.Query,
			Sources:   data.Sources,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Limit:     req.Limit,
			Sorts:     req.Sorts,
		},
		Results: data.Results,
		Summary: QuerySummary{
			Total:        len(data.Results),
			SourceErrors: SourceErrors(data.Results),
			RequestID:    env.Meta.RequestID,
			Timestamp:    time.Now().UTC(),
		},
	}

	out, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// ToRequest converts stored QueryParams back into a SearchRequest.
func (p QueryParams) ToRequest() SearchRequest {
	return SearchRequest{
		Query:     p.Text,
		Sources:   p.Sources,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Limit:     p.Limit,
		Sorts:     p.Sorts,
	}
}

// SourceErrors returns one "source: CODE message" line per error entry.
func SourceErrors(items []types.SearchItem) []string {
	var out []string
	for _, it := range items {
		if it.Error != nil {
			out = append(out, fmt.Sprintf("%s: %s %s", it.Source, it.Error.Code, it.Error.Message))
		}
	}
	return out
}
