// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package issues

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected network call")
}

const searchJSON = `{
  "issues": [
    {"id": "1", "key": "APP-1", "self": "https://jira.example/rest/api/3/issue/1",
     "fields": {"summary": "Dashboard loads slowly", "status": {"name": "Open"},
                "description": {"type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "Charts take ages"}]}]}}},
    {"id": "2", "key": "APP-2", "self": "https://jira.example/rest/api/3/issue/2",
     "fields": {"summary": "Crash on save", "status": {"name": "In Progress"},
                "assignee": {"displayName": "Dana"}, "reporter": {"displayName": "Lee"},
                "priority": {"name": "High"}, "issuetype": {"name": "Bug"}, "project": {"key": "APP"},
                "created": "2025-01-01T10:00:00.000+0000", "updated": "2025-01-02T10:00:00.000+0000",
                "description": {"type": "doc", "content": [{"type": "paragraph", "content": [
                   {"type": "text", "text": "Saving a file "}, {"type": "text", "text": "throws an error"}]}]}}}
  ],
  "nextPageToken": "tok-2",
  "isLast": false
}`

func validConfig(base string) types.JiraConfig {
	return types.JiraConfig{BaseURL: base + "/", Email: "me@example.com", APIToken: "secret"}
}

func TestSearchClosest(t *testing.T) {
	var gotQuery map[string][]string
	var gotUser, gotPass string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search/jql", r.URL.Path)
		gotQuery = r.URL.Query()
		gotUser, gotPass, _ = r.BasicAuth()
		_, _ = w.Write([]byte(searchJSON))
	}))
	defer ts.Close()

	c := &Client{HTTP: ts.Client(), Config: validConfig(ts.URL)}
	env := c.SearchClosest(context.Background(), SearchParams{
		Query:         "save error",
		ProjectKey:    "APP",
		MaxResults:    500,
		NextPageToken: "tok-1",
		Fields:        []string{"labels", "summary"},
	})
	require.True(t, env.OK, "error: %+v", env.Error)

	assert.Equal(t, "me@example.com", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, `project = "APP" AND text ~ "save error"`, gotQuery["jql"][0])
	assert.Equal(t, "50", gotQuery["maxResults"][0])
	assert.Equal(t, "tok-1", gotQuery["nextPageToken"][0])
	assert.Equal(t, "summary,status,assignee,reporter,priority,issuetype,project,created,updated,description,labels", gotQuery["fields"][0])

	data, ok := env.Data.(ClosestData)
	require.True(t, ok)
	assert.Equal(t, `project = "APP" AND text ~ "save error"`, data.JQL)
	require.Len(t, data.Ranked, 2)
	require.NotNil(t, data.BestMatch)
	assert.Equal(t, "APP-2", data.BestMatch.Issue.Key)
	assert.Equal(t, data.Ranked[0], *data.BestMatch)
	assert.GreaterOrEqual(t, data.Ranked[0].Score, data.Ranked[1].Score)

	best := data.BestMatch.Issue
	assert.Equal(t, "Saving a file throws an error", best.DescriptionText)
	assert.Equal(t, "Dana", best.Assignee)
	assert.Equal(t, "Lee", best.Reporter)
	assert.Equal(t, "High", best.Priority)
	assert.Equal(t, "Bug", best.IssueType)
	assert.Equal(t, "APP", best.Project)
	assert.NotNil(t, best.DescriptionRaw)

	require.NotNil(t, data.NextPageToken)
	assert.Equal(t, "tok-2", *data.NextPageToken)
	require.NotNil(t, data.IsLast)
	assert.False(t, *data.IsLast)
}

func TestSearchClosest_NoIssues(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issues":[],"isLast":true}`))
	}))
	defer ts.Close()

	c := &Client{HTTP: ts.Client(), Config: validConfig(ts.URL)}
	env := c.SearchClosest(context.Background(), SearchParams{Query: "anything"})
	require.True(t, env.OK)

	data := env.Data.(ClosestData)
	assert.Nil(t, data.BestMatch)
	assert.NotNil(t, data.Ranked)
	assert.Empty(t, data.Ranked)
	assert.Nil(t, data.NextPageToken)
}

func TestSearchClosest_MissingConfig(t *testing.T) {
	transport := &countingTransport{}
	client := &http.Client{Transport: transport}

	tests := []struct {
		name    string
		cfg     types.JiraConfig
		wantVar string
	}{
		{"no base url", types.JiraConfig{Email: "e", APIToken: "t"}, "JIRA_BASE_URL"},
		{"no email", types.JiraConfig{BaseURL: "https://x", APIToken: "t"}, "JIRA_EMAIL"},
		{"no token", types.JiraConfig{BaseURL: "https://x", Email: "e"}, "JIRA_API_TOKEN"},
		{"nothing", types.JiraConfig{}, "JIRA_BASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{HTTP: client, Config: tt.cfg}
			env := c.SearchClosest(context.Background(), SearchParams{Query: "x"})
			assert.False(t, env.OK)
			assert.Equal(t, types.CodeMissingConfig, env.Error.Code)
			assert.Equal(t, "Missing env var: "+tt.wantVar, env.Error.Message)
		})
	}
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestSearchClosest_EmptyQuery(t *testing.T) {
	transport := &countingTransport{}
	c := &Client{HTTP: &http.Client{Transport: transport}, Config: validConfig("https://jira.example")}

	env := c.SearchClosest(context.Background(), SearchParams{Query: "   "})
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestSearchClosest_UpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := &Client{HTTP: ts.Client(), Config: validConfig(ts.URL)}
	env := c.SearchClosest(context.Background(), SearchParams{Query: "x"})
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadAuth, env.Error.Code)
}

func TestSearchClosest_MaxResultsBounds(t *testing.T) {
	var got []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"issues":[]}`))
	}))
	defer ts.Close()

	c := &Client{HTTP: ts.Client(), Config: validConfig(ts.URL)}
	for _, n := range []int{0, -3, 1, 51} {
		c.SearchClosest(context.Background(), SearchParams{Query: "x", MaxResults: n})
	}
	assert.Equal(t, []string{"10", "1", "1", "50"}, got)
}

func TestBuildJQL(t *testing.T) {
	tests := []struct {
		name, query, project, mode string
		want                       string
	}{
		{"text mode", "login fails", "", "", `text ~ "login fails"`},
		{"description mode", "login fails", "", ModeDescription, `description ~ "login fails"`},
		{"unknown mode falls back to text", "x", "", "summary", `text ~ "x"`},
		{"project prefix", "x", "OPS", ModeText, `project = "OPS" AND text ~ "x"`},
		{"escapes quotes", `say "hi"`, `A"B`, "", `project = "A\"B" AND text ~ "say \"hi\""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildJQL(tt.query, tt.project, tt.mode))
		})
	}
}

func TestFlattenADF(t *testing.T) {
	doc := map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "Hello "},
				map[string]any{"type": "mention", "attrs": map[string]any{"id": "1"}},
				map[string]any{"type": "text", "text": "world"},
			}},
		},
	}
	assert.Equal(t, "Hello world", FlattenADF(doc))
	assert.Equal(t, "", FlattenADF(nil))
	assert.Equal(t, "plain", FlattenADF("plain"))
	assert.Equal(t, "ab", FlattenADF([]any{"a", "b"}))
}

func TestRequestFields(t *testing.T) {
	assert.Equal(t, defaultFields, RequestFields(nil))
	got := RequestFields([]string{"labels", "status", "labels", "components"})
	assert.Equal(t, append(append([]string{}, defaultFields...), "labels", "components"), got)
}
