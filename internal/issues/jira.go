// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package issues finds the Jira issue closest to a free-text description.
// It runs one JQL text search and ranks the returned issues by string
// similarity to the query.
package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/internal/policy"
	"github.com/pdiddy/policy-engine/internal/rank"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// Search modes.
const (
	ModeText        = "text"
	ModeDescription = "description"
)

// MaxResults bounds.
const (
	DefaultMaxResults = 10
	maxMaxResults     = 50
)

// defaultFields are always requested, ahead of any caller extras.
var defaultFields = []string{
	"summary", "status", "assignee", "reporter", "priority",
	"issuetype", "project", "created", "updated", "description",
}

// MissingConfigError names the first unset Jira setting.
type MissingConfigError struct {
	Var string
}

func (e *MissingConfigError) Error() string {
	return "Missing env var: " + e.Var
}

// Client searches one Jira Cloud site with basic auth.
type Client struct {
	HTTP      *http.Client
	Config    types.JiraConfig
	UserAgent string

	// MaxAttempts is the retry budget per request (0 uses the default).
	MaxAttempts int
}

// Validate reports the first missing setting, checked in the order
// JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN.
func (c *Client) Validate() error {
	switch {
	case strings.TrimSpace(c.Config.BaseURL) == "":
		return &MissingConfigError{Var: "JIRA_BASE_URL"}
	case c.Config.Email == "":
		return &MissingConfigError{Var: "JIRA_EMAIL"}
	case c.Config.APIToken == "":
		return &MissingConfigError{Var: "JIRA_API_TOKEN"}
	}
	return nil
}

// SearchParams holds the arguments of a closest-issue search.
type SearchParams struct {
	Query         string
	ProjectKey    string
	Mode          string
	MaxResults    int
	NextPageToken string
	Fields        []string
}

// Issue is the normalized view of one Jira issue.
type Issue struct {
	Key             string `json:"key"`
	ID              string `json:"id"`
	Self            string `json:"self"`
	Summary         string `json:"summary"`
	Status          string `json:"status,omitempty"`
	Assignee        string `json:"assignee,omitempty"`
	Reporter        string `json:"reporter,omitempty"`
	Priority        string `json:"priority,omitempty"`
	IssueType       string `json:"issue_type,omitempty"`
	Project         string `json:"project,omitempty"`
	Created         string `json:"created,omitempty"`
	Updated         string `json:"updated,omitempty"`
	DescriptionText string `json:"description_text"`
	DescriptionRaw  any    `json:"description_raw"`
}

// RankedIssue is an issue with its similarity score.
type RankedIssue struct {
	Score float64 `json:"score"`
	Issue Issue   `json:"issue"`
}

// ClosestData is the Data payload of a closest-issue search.
type ClosestData struct {
	JQL           string        `json:"jql"`
	BestMatch     *RankedIssue  `json:"best_match"`
	Ranked        []RankedIssue `json:"ranked"`
	NextPageToken *string       `json:"nextPageToken"`
	IsLast        *bool         `json:"isLast"`
}

// SearchClosest runs a JQL text search for p.Query and ranks the returned
// issues by similarity to it. Configuration is checked before input, and
// both before any network call.
func (c *Client) SearchClosest(ctx context.Context, p SearchParams) types.Envelope {
	start := time.Now()
	if err := c.Validate(); err != nil {
		return types.Failure(&types.ErrorInfo{Code: types.CodeMissingConfig, Message: err.Error()}, types.NewMeta(start))
	}
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "query cannot be empty"), types.NewMeta(start))
	}

	maxResults := p.MaxResults
	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	maxResults = min(max(maxResults, 1), maxMaxResults)

	jql := BuildJQL(query, p.ProjectKey, p.Mode)
	resp, err := c.search(ctx, jql, maxResults, RequestFields(p.Fields), p.NextPageToken)
	if err != nil {
		info, _ := policy.Classify(err)
		return types.Failure(info, types.NewMeta(start))
	}

	candidates := make([]rank.Candidate[Issue], 0, len(resp.Issues))
	for _, ji := range resp.Issues {
		issue := ji.normalize()
		text := strings.Join([]string{issue.Summary, issue.DescriptionText, issue.Key}, " ")
		candidates = append(candidates, rank.Candidate[Issue]{Text: text, Record: issue})
	}

	data := ClosestData{
		JQL:           jql,
		Ranked:        []RankedIssue{},
		NextPageToken: resp.NextPageToken,
		IsLast:        resp.IsLast,
	}
	ranked := rank.Rank(p.Query, candidates)
	for _, r := range ranked {
		data.Ranked = append(data.Ranked, RankedIssue{Score: r.Score, Issue: r.Record})
	}
	if best, ok := rank.Best(ranked); ok {
		data.BestMatch = &RankedIssue{Score: best.Score, Issue: best.Record}
	}
	return types.Success(data, types.NewMeta(start))
}

// EscapePhrase escapes double quotes for use inside a quoted JQL string.
func EscapePhrase(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// BuildJQL returns `text ~ "query"` (or `description ~ "query"` in
// description mode), prefixed by a project clause when projectKey is set.
func BuildJQL(query, projectKey, mode string) string {
	field := "text"
	if mode == ModeDescription {
		field = "description"
	}
	clause := fmt.Sprintf(`%s ~ "%s"`, field, EscapePhrase(query))
	if projectKey == "" {
		return clause
	}
	return fmt.Sprintf(`project = "%s" AND %s`, EscapePhrase(projectKey), clause)
}

// RequestFields appends extra to the default field list, dropping
// duplicates while keeping first-seen order.
func RequestFields(extra []string) []string {
	seen := make(map[string]bool, len(defaultFields)+len(extra))
	out := make([]string, 0, len(defaultFields)+len(extra))
	for _, f := range append(append([]string{}, defaultFields...), extra...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// FlattenADF concatenates the text nodes of an Atlassian Document Format
// tree. Plain strings are returned as-is.
func FlattenADF(node any) string {
	switch n := node.(type) {
	case nil:
		return ""
	case string:
		return n
	case map[string]any:
		if n["type"] == "text" {
			s, _ := n["text"].(string)
			return s
		}
		return FlattenADF(n["content"])
	case []any:
		var b strings.Builder
		for _, child := range n {
			b.WriteString(FlattenADF(child))
		}
		return b.String()
	default:
		return fmt.Sprint(n)
	}
}

func (c *Client) search(ctx context.Context, jql string, maxResults int, fields []string, token string) (*jiraSearchResponse, error) {
	params := url.Values{
		"jql":        {jql},
		"maxResults": {strconv.Itoa(maxResults)},
		"fields":     {strings.Join(fields, ",")},
	}
	if token != "" {
		params.Set("nextPageToken", token)
	}
	u := strings.TrimRight(c.Config.BaseURL, "/") + "/rest/api/3/search/jql?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.Config.Email, c.Config.APIToken)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.Send(ctx, client, req, c.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()

	var sr jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing jira response: %w", err)
	}
	return &sr, nil
}

// Jira REST API JSON structures.
type jiraSearchResponse struct {
	Issues        []jiraIssue `json:"issues"`
	NextPageToken *string     `json:"nextPageToken"`
	IsLast        *bool       `json:"isLast"`
}

type jiraIssue struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"`
	Self   string     `json:"self"`
	Fields jiraFields `json:"fields"`
}

type jiraFields struct {
	Summary     string      `json:"summary"`
	Status      *jiraNamed  `json:"status"`
	Assignee    *jiraPerson `json:"assignee"`
	Reporter    *jiraPerson `json:"reporter"`
	Priority    *jiraNamed  `json:"priority"`
	IssueType   *jiraNamed  `json:"issuetype"`
	Project     *jiraKeyed  `json:"project"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`
	Description any         `json:"description"`
}

type jiraNamed struct {
	Name string `json:"name"`
}

type jiraPerson struct {
	DisplayName string `json:"displayName"`
}

type jiraKeyed struct {
	Key string `json:"key"`
}

func (ji jiraIssue) normalize() Issue {
	f := ji.Fields
	issue := Issue{
		Key:             ji.Key,
		ID:              ji.ID,
		Self:            ji.Self,
		Summary:         f.Summary,
		Created:         f.Created,
		Updated:         f.Updated,
		DescriptionText: FlattenADF(f.Description),
		DescriptionRaw:  f.Description,
	}
	if f.Status != nil {
		issue.Status = f.Status.Name
	}
	if f.Assignee != nil {
		issue.Assignee = f.Assignee.DisplayName
	}
	if f.Reporter != nil {
		issue.Reporter = f.Reporter.DisplayName
	}
	if f.Priority != nil {
		issue.Priority = f.Priority.Name
	}
	if f.IssueType != nil {
		issue.IssueType = f.IssueType.Name
	}
	if f.Project != nil {
		issue.Project = f.Project.Key
	}
	return issue
}
