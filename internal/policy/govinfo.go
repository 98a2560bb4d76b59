// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// govInfoBase is the GovInfo API root. Declared as a var so tests can
// substitute an httptest server.
var govInfoBase = "https://api.govinfo.gov"

// ErrMissingAPIKey is returned before any network call when no GovInfo API
// key is configured.
var ErrMissingAPIKey = errors.New("GOVINFO_API_KEY not configured")

// firstOffsetMark requests the first page of a GovInfo search.
const firstOffsetMark = "*"

// GovInfo queries the GovInfo search service and granule summaries. All
// requests carry the API key both as the api_key query parameter and the
// X-Api-Key header.
type GovInfo struct {
	Client    *http.Client
	UserAgent string
	APIKey    string

	// MaxAttempts is the retry budget per request (0 uses the default).
	MaxAttempts int

	// BaseURL overrides the package default when non-empty.
	BaseURL string
}

// Name returns the source identifier.
func (g *GovInfo) Name() string { return types.SourceGovInfo }

func (g *GovInfo) base() string {
	if g.BaseURL != "" {
		return strings.TrimRight(g.BaseURL, "/")
	}
	return govInfoBase
}

// SearchPage is one page of GovInfo search results.
type SearchPage struct {
	Items      []types.SearchItem
	Records    []map[string]any
	OffsetMark string
	Count      int
}

// Fetch returns the first page of results for q as SearchItems.
func (g *GovInfo) Fetch(ctx context.Context, q Query) ([]types.SearchItem, error) {
	page, err := g.Search(ctx, q, firstOffsetMark)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Search posts q to the search service starting at offsetMark ("*" for the
// first page).
func (g *GovInfo) Search(ctx context.Context, q Query, offsetMark string) (*SearchPage, error) {
	if g.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if offsetMark == "" {
		offsetMark = firstOffsetMark
	}

	body := govInfoSearchRequest{
		Query:      q.Text,
		PageSize:   q.Limit,
		OffsetMark: offsetMark,
		Sorts:      q.Sorts,
		FromDate:   q.StartDate,
		ToDate:     q.EndDate,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding govinfo search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.withKey(g.base()+"/search"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var gr govInfoSearchResponse
	if err := g.do(ctx, req, &gr); err != nil {
		return nil, err
	}

	records := gr.Results
	if len(records) == 0 {
		records = gr.Packages
	}
	page := &SearchPage{
		Records:    records,
		OffsetMark: gr.OffsetMark,
		Count:      gr.Count,
		Items:      make([]types.SearchItem, 0, len(records)),
	}
	for _, rec := range records {
		page.Items = append(page.Items, govInfoItem(rec))
	}
	return page, nil
}

// Summary fetches the summary record of one granule. The returned URL never
// includes the API key.
func (g *GovInfo) Summary(ctx context.Context, id types.GranuleIdentifier) (map[string]any, string, error) {
	if g.APIKey == "" {
		return nil, "", ErrMissingAPIKey
	}
	summaryURL := fmt.Sprintf("%s/packages/%s/granules/%s/summary",
		g.base(), url.PathEscape(id.PackageID), url.PathEscape(id.GranuleID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.withKey(summaryURL), nil)
	if err != nil {
		return nil, summaryURL, fmt.Errorf("creating request: %w", err)
	}
	var summary map[string]any
	if err := g.do(ctx, req, &summary); err != nil {
		return nil, summaryURL, err
	}
	return summary, summaryURL, nil
}

// ownsLink reports whether link points at the GovInfo API host, the only
// host the API key is sent to.
func (g *GovInfo) ownsLink(link string) bool {
	lu, err := url.Parse(link)
	if err != nil {
		return false
	}
	bu, err := url.Parse(g.base())
	if err != nil {
		return false
	}
	return lu.Host != "" && strings.EqualFold(lu.Host, bu.Host)
}

// withKey appends the api_key query parameter to u.
func (g *GovInfo) withKey(u string) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + url.Values{"api_key": {g.APIKey}}.Encode()
}

func (g *GovInfo) do(ctx context.Context, req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", g.APIKey)
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := httputil.Send(ctx, g.Client, req, g.MaxAttempts)
	if err != nil {
		return fmt.Errorf("govinfo request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing govinfo response: %w", err)
	}
	return nil
}

// GovInfo API JSON structures. Records stay untyped because field names
// vary between collections.
type govInfoSearchRequest struct {
	Query      string           `json:"query"`
	PageSize   int              `json:"pageSize"`
	OffsetMark string           `json:"offsetMark"`
	Sorts      []types.SortSpec `json:"sorts,omitempty"`
	FromDate   string           `json:"fromDate,omitempty"`
	ToDate     string           `json:"toDate,omitempty"`
}

type govInfoSearchResponse struct {
	Count      int              `json:"count"`
	OffsetMark string           `json:"offsetMark"`
	Results    []map[string]any `json:"results"`
	Packages   []map[string]any `json:"packages"`
}

// Field-name variants, tried in order.
var (
	packageIDKeys  = []string{"packageId", "packageID", "package_id"}
	granuleIDKeys  = []string{"granuleId", "granuleID", "granule_id"}
	collectionKeys = []string{"collectionCode", "collection"}
	dateIssuedKeys = []string{"dateIssued", "date_issued"}
	resultLinkKeys = []string{"resultLink", "result_link"}
)

func govInfoItem(rec map[string]any) types.SearchItem {
	collection := firstString(rec, collectionKeys...)
	date := firstString(rec, dateIssuedKeys...)
	link := firstString(rec, resultLinkKeys...)

	fields := map[string]any{
		"collection": collection,
		"date":       date,
	}
	setString(fields, "package_id", firstString(rec, packageIDKeys...))
	setString(fields, "granule_id", firstString(rec, granuleIDKeys...))
	setString(fields, "last_modified", firstString(rec, "lastModified", "last_modified"))
	setString(fields, "date_ingested", firstString(rec, "dateIngested", "date_ingested"))
	setString(fields, "result_link", link)
	setString(fields, "related_link", firstString(rec, "relatedLink", "related_link"))
	if v, ok := rec["governmentAuthor"]; ok && v != nil {
		fields["government_author"] = v
	}
	if v, ok := rec["download"]; ok && v != nil {
		fields["download"] = v
	}

	return types.SearchItem{
		Source: types.SourceGovInfo,
		Type:   collection,
		Title:  firstString(rec, "title"),
		Date:   date,
		URL:    link,
		Fields: fields,
	}
}

// firstString returns the first non-empty string value among keys.
func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
