// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/issues"
	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// Deps are the upstream clients the network-backed tools call.
type Deps struct {
	Aggregator      *policy.Aggregator
	FederalRegister *policy.FederalRegister
	GovInfo         *policy.GovInfo
	Summaries       *policy.Summaries
	Jira            *issues.Client
}

// NewDeps builds upstream clients from cfg. Metadata requests use
// cfg.HTTP.Timeout and content downloads cfg.HTTP.ContentTimeout.
func NewDeps(cfg types.Config, logger *zap.Logger) Deps {
	metaClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	contentClient := &http.Client{Timeout: cfg.HTTP.ContentTimeout}

	fr := &policy.FederalRegister{
		Client:      metaClient,
		UserAgent:   cfg.HTTP.UserAgent,
		MaxAttempts: cfg.HTTP.MaxAttempts,
		BaseURL:     cfg.FederalRegister.BaseURL,
	}
	gi := &policy.GovInfo{
		Client:      metaClient,
		UserAgent:   cfg.HTTP.UserAgent,
		APIKey:      cfg.GovInfo.APIKey,
		MaxAttempts: cfg.HTTP.MaxAttempts,
		BaseURL:     cfg.GovInfo.BaseURL,
	}
	return Deps{
		Aggregator:      policy.NewAggregator(logger, fr, gi),
		FederalRegister: fr,
		GovInfo:         gi,
		Summaries: &policy.Summaries{
			GovInfo:         gi,
			FederalRegister: fr,
			ContentClient:   contentClient,
		},
		Jira: &issues.Client{
			HTTP:        metaClient,
			Config:      cfg.Jira,
			UserAgent:   cfg.HTTP.UserAgent,
			MaxAttempts: cfg.HTTP.MaxAttempts,
		},
	}
}

// Catalog returns every tool: builtins first, then policy and issue tools.
func Catalog(d Deps) []Tool {
	var all []Tool
	all = append(all, Builtins()...)
	all = append(all, PolicyTools(d)...)
	all = append(all, IssueTools(d)...)
	return all
}

// NewCatalogRegistry is NewRegistry over Catalog(d).
func NewCatalogRegistry(d Deps) (*Registry, error) {
	return NewRegistry(Catalog(d)...)
}
