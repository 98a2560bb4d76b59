// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/policy-engine/internal/issues"
	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/pkg/types"
)

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected network call")
}

const frSearchJSON = `{"count": 3, "results": [
  {"title": "A", "publication_date": "2025-03-01", "html_url": "https://fr.example/a", "type": "Rule"},
  {"title": "C", "publication_date": "2024-12-01", "html_url": "https://fr.example/c"},
  {"title": "B", "publication_date": "2025-01-15", "html_url": "https://fr.example/b"}
]}`

func catalogWith(t *testing.T, cfg types.Config) *Registry {
	t.Helper()
	r, err := NewCatalogRegistry(NewDeps(cfg, nil))
	require.NoError(t, err)
	return r
}

func TestGovPolicySearch_EducationScenario(t *testing.T) {
	var perPage []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents.json", r.URL.Path)
		assert.Equal(t, "education", r.URL.Query().Get("conditions[any]"))
		perPage = append(perPage, r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(frSearchJSON))
	}))
	defer ts.Close()

	cfg := types.DefaultConfig()
	cfg.FederalRegister.BaseURL = ts.URL
	r := catalogWith(t, cfg)

	env := invoke(t, r, "gov_policy_search", `{"query":"education","sources":["federal_register"],"limit":2}`)
	require.True(t, env.OK, "error: %+v", env.Error)
	data := env.Data.(types.SearchData)
	assert.Equal(t, []string{"federal_register"}, data.Sources)
	require.Len(t, data.Results, 2)
	assert.Equal(t, "A", data.Results[0].Title)
	assert.Equal(t, "B", data.Results[1].Title)
	assert.Equal(t, "gov_policy_search", env.Meta.Source)
	assert.NotEmpty(t, env.Meta.FetchedAt)
	assert.Equal(t, []string{"2"}, perPage)
}

func TestGovPolicySearch_DefaultLimit(t *testing.T) {
	var perPage string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer ts.Close()

	cfg := types.DefaultConfig()
	cfg.FederalRegister.BaseURL = ts.URL
	env := invoke(t, catalogWith(t, cfg), "gov_policy_search", `{"query":"water"}`)
	require.True(t, env.OK)
	assert.Equal(t, "5", perPage)
	assert.NotNil(t, env.Data.(types.SearchData).Results)
}

func TestGovPolicySearch_EmptyQuery(t *testing.T) {
	env := invoke(t, catalogWith(t, types.DefaultConfig()), "gov_policy_search", `{"query":"  "}`)
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)
}

func TestGovInfoTools_MissingKeyMakesNoCall(t *testing.T) {
	transport := &countingTransport{}
	deps := NewDeps(types.DefaultConfig(), nil)
	deps.GovInfo.Client = &http.Client{Transport: transport}
	deps.Summaries.ContentClient = &http.Client{Transport: transport}
	r, err := NewCatalogRegistry(deps)
	require.NoError(t, err)

	tests := []struct {
		tool  string
		input string
		code  types.ErrorCode
	}{
		{"govinfo_search", `{"query":"tariffs"}`, types.CodeMissingConfig},
		{"govinfo_search_granules", `{"query":"tariffs"}`, types.CodeBadInput},
		{"gov_policy_summary", `{"package_id":"FR-2025-01-02","granule_id":"2024-1"}`, types.CodeBadInput},
		{"govinfo_download_granule_text", `{"package_id":"FR-2025-01-02","granule_id":"2024-1"}`, types.CodeBadInput},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			env := invoke(t, r, tt.tool, tt.input)
			assert.False(t, env.OK)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	env := invoke(t, r, "gov_policy_search", `{"query":"tariffs","sources":["govinfo"]}`)
	require.True(t, env.OK)
	results := env.Data.(types.SearchData).Results
	require.Len(t, results, 1)
	assert.Equal(t, types.CodeMissingConfig, results[0].Error.Code)

	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestGovPolicySummary_RejectsFormatBeforeNetwork(t *testing.T) {
	transport := &countingTransport{}
	cfg := types.DefaultConfig()
	cfg.GovInfo.APIKey = "k"
	deps := NewDeps(cfg, nil)
	deps.GovInfo.Client = &http.Client{Transport: transport}
	r, err := NewCatalogRegistry(deps)
	require.NoError(t, err)

	env := invoke(t, r, "gov_policy_summary", `{"package_id":"P","granule_id":"G","format":"txt"}`)
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestGovInfoSearchGranules_DefaultPageSize(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"results":[{"packageId":"P1","granuleId":"G1","title":"T"},{"packageId":"P2"}],"offsetMark":"next"}`))
	}))
	defer ts.Close()

	cfg := types.DefaultConfig()
	cfg.GovInfo.APIKey = "k"
	cfg.GovInfo.BaseURL = ts.URL
	env := invoke(t, catalogWith(t, cfg), "govinfo_search_granules", `{"query":"steel"}`)
	require.True(t, env.OK, "error: %+v", env.Error)
	assert.Equal(t, float64(policy.DefaultGranulePageSize), body["pageSize"])
	assert.Equal(t, "*", body["offsetMark"])

	data := env.Data.(policy.GranuleSearchData)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "G1", data.Items[0].GranuleID)
	assert.Equal(t, "next", data.NextOffsetMark)
}

func TestFederalRegisterDocumentSummary_FmtAlias(t *testing.T) {
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/documents/2025-00001.json", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"document_number":   "2025-00001",
			"html_url":          base + "/page.html",
			"full_text_xml_url": base + "/full.xml",
		})
	})
	mux.HandleFunc("/full.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte("<doc/>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	base = ts.URL

	cfg := types.DefaultConfig()
	cfg.FederalRegister.BaseURL = ts.URL
	env := invoke(t, catalogWith(t, cfg), "federal_register_get_document_summary", `{"document_id":"2025-00001","fmt":"xml"}`)
	require.True(t, env.OK, "error: %+v", env.Error)

	data := env.Data.(policy.DocumentSummaryData)
	assert.Equal(t, "xml", data.Format)
	assert.Equal(t, ts.URL+"/full.xml", data.DownloadURL)
	require.NotNil(t, data.Content)
	assert.Equal(t, "<doc/>", *data.Content)
}

func TestJiraSearchClosest_MissingConfig(t *testing.T) {
	env := invoke(t, catalogWith(t, types.DefaultConfig()), "jira_search_closest", `{"query":"login broken"}`)
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeMissingConfig, env.Error.Code)
	assert.Equal(t, "Missing env var: JIRA_BASE_URL", env.Error.Message)
}

func TestJiraSearchClosest_PassesArguments(t *testing.T) {
	var q map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = w.Write([]byte(`{"issues":[{"key":"OPS-7","fields":{"summary":"Login broken"}}],"isLast":true}`))
	}))
	defer ts.Close()

	cfg := types.DefaultConfig()
	cfg.Jira = types.JiraConfig{BaseURL: ts.URL, Email: "e@example.com", APIToken: "t"}
	env := invoke(t, catalogWith(t, cfg), "jira_search_closest",
		`{"query":"login broken","project_key":"OPS","mode":"description","max_results":3}`)
	require.True(t, env.OK, "error: %+v", env.Error)

	assert.Equal(t, `project = "OPS" AND description ~ "login broken"`, q["jql"][0])
	assert.Equal(t, "3", q["maxResults"][0])
	data := env.Data.(issues.ClosestData)
	require.NotNil(t, data.BestMatch)
	assert.Equal(t, "OPS-7", data.BestMatch.Issue.Key)
	assert.Greater(t, data.BestMatch.Score, 0.5)
}
