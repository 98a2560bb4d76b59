// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// federalRegisterBase is the Federal Register API root. Declared as a var so
// tests can substitute an httptest server.
var federalRegisterBase = "https://www.federalregister.gov/api/v1"

// FederalRegister queries the Federal Register documents API. No credential
// is required.
type FederalRegister struct {
	Client    *http.Client
	UserAgent string

	// MaxAttempts is the retry budget per request (0 uses the default).
	MaxAttempts int

	// BaseURL overrides the package default when non-empty.
	BaseURL string
}

// Name returns the source identifier.
func (f *FederalRegister) Name() string { return types.SourceFederalRegister }

func (f *FederalRegister) base() string {
	if f.BaseURL != "" {
		return strings.TrimRight(f.BaseURL, "/")
	}
	return federalRegisterBase
}

// Fetch runs a relevance-ordered full-text search and maps each document to
// a SearchItem.
func (f *FederalRegister) Fetch(ctx context.Context, q Query) ([]types.SearchItem, error) {
	params := url.Values{
		"per_page":        {strconv.Itoa(q.Limit)},
		"order":           {"relevance"},
		"conditions[any]": {q.Text},
	}
	if q.StartDate != "" {
		params.Set("conditions[publication_date][gte]", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("conditions[publication_date][lte]", q.EndDate)
	}

	var frr federalRegisterResponse
	if err := f.getJSON(ctx, f.base()+"/documents.json?"+params.Encode(), &frr); err != nil {
		return nil, err
	}

	items := make([]types.SearchItem, 0, len(frr.Results))
	for _, doc := range frr.Results {
		items = append(items, doc.item())
	}
	return items, nil
}

// Document fetches the full metadata record of one document by its
// document number.
func (f *FederalRegister) Document(ctx context.Context, documentID string) (map[string]any, error) {
	var doc map[string]any
	u := f.base() + "/documents/" + url.PathEscape(documentID) + ".json"
	if err := f.getJSON(ctx, u, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *FederalRegister) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := httputil.Send(ctx, f.Client, req, f.MaxAttempts)
	if err != nil {
		return fmt.Errorf("federal register request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing federal register response: %w", err)
	}
	return nil
}

// Federal Register API JSON structures.
type federalRegisterResponse struct {
	Count   int                       `json:"count"`
	Results []federalRegisterDocument `json:"results"`
}

type federalRegisterDocument struct {
	Title           string                  `json:"title"`
	Type            string                  `json:"type"`
	Abstract        string                  `json:"abstract"`
	DocumentNumber  string                  `json:"document_number"`
	HTMLURL         string                  `json:"html_url"`
	PDFURL          string                  `json:"pdf_url"`
	PublicationDate string                  `json:"publication_date"`
	Agencies        []federalRegisterAgency `json:"agencies"`
}

type federalRegisterAgency struct {
	Name string `json:"name"`
}

func (d federalRegisterDocument) item() types.SearchItem {
	var agencies []string
	for _, a := range d.Agencies {
		if a.Name != "" {
			agencies = append(agencies, a.Name)
		}
	}

	fields := map[string]any{
		"publication_date": d.PublicationDate,
		"abstract":         d.Abstract,
		"document_number":  d.DocumentNumber,
	}
	if len(agencies) > 0 {
		fields["agency"] = strings.Join(agencies, "; ")
	}
	if d.Type != "" {
		fields["document_type"] = d.Type
	}
	if d.PDFURL != "" {
		fields["pdf_url"] = d.PDFURL
	}

	return types.SearchItem{
		Source: types.SourceFederalRegister,
		Type:   types.SourceFederalRegister,
		Title:  d.Title,
		Date:   d.PublicationDate,
		URL:    d.HTMLURL,
		Fields: fields,
	}
}
