// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// Supported download formats.
const (
	FormatHTM = "htm"
	FormatXML = "xml"
	FormatPDF = "pdf"
)

// granuleLinks lists, per format, the keys of a granule summary's download
// object in the order they are tried.
var granuleLinks = map[string][]string{
	FormatHTM: {"txtLink", "htmlLink", "htmLink"},
	FormatXML: {"xmlLink"},
	FormatPDF: {"pdfLink"},
}

// documentLinks does the same for a Federal Register document record.
var documentLinks = map[string][]string{
	FormatHTM: {"body_html_url", "html_url"},
	FormatXML: {"full_text_xml_url", "html_url"},
	FormatPDF: {"pdf_url", "html_url"},
}

// maxContentBytes caps a downloaded rendition.
const maxContentBytes = 32 << 20

// Summaries fetches granule and document summaries plus their text
// renditions.
type Summaries struct {
	GovInfo         *GovInfo
	FederalRegister *FederalRegister

	// ContentClient downloads renditions. It normally carries a longer
	// timeout than the metadata clients.
	ContentClient *http.Client
}

// GranuleSummaryData is the Data payload of a granule summary fetch.
type GranuleSummaryData struct {
	PackageID   string         `json:"package_id" yaml:"package_id"`
	GranuleID   string         `json:"granule_id" yaml:"granule_id"`
	Format      string         `json:"format" yaml:"format"`
	SummaryURL  string         `json:"summary_url" yaml:"summary_url"`
	DownloadURL string         `json:"download_url" yaml:"download_url"`
	ContentType string         `json:"content_type" yaml:"content_type"`
	Content     *string        `json:"content" yaml:"content"`
	Summary     map[string]any `json:"summary" yaml:"summary"`
}

// DocumentSummaryData is the Data payload of a Federal Register document
// summary fetch.
type DocumentSummaryData struct {
	DocumentID  string         `json:"document_id" yaml:"document_id"`
	Format      string         `json:"format" yaml:"format"`
	DownloadURL string         `json:"download_url" yaml:"download_url"`
	ContentType string         `json:"content_type" yaml:"content_type"`
	Content     *string        `json:"content" yaml:"content"`
	Summary     map[string]any `json:"summary" yaml:"summary"`
}

// summaryURLData carries the summary URL on a NOT_FOUND failure.
type summaryURLData struct {
	SummaryURL string `json:"summary_url" yaml:"summary_url"`
}

// NormalizeFormat lower-cases format and reports whether it is supported.
// An empty format defaults to htm.
func NormalizeFormat(format string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = FormatHTM
	}
	_, ok := granuleLinks[f]
	return f, ok
}

// GranuleSummary fetches the summary of one GovInfo granule and resolves a
// download link for format. For htm and xml the rendition is downloaded and
// returned as content; for pdf only the link is returned. Argument and
// configuration problems fail with BAD_INPUT before any network call.
func (s *Summaries) GranuleSummary(ctx context.Context, packageID, granuleID, format string) types.Envelope {
	start := time.Now()
	id := types.GranuleIdentifier{
		PackageID: strings.TrimSpace(packageID),
		GranuleID: strings.TrimSpace(granuleID),
	}
	if !id.Valid() {
		return types.Failure(types.NewError(types.CodeBadInput, "package_id and granule_id are required"), types.StampedMeta(start))
	}
	fmtName, ok := NormalizeFormat(format)
	if !ok {
		return types.Failure(types.NewError(types.CodeBadInput, "format must be one of: htm, xml, pdf"), types.StampedMeta(start))
	}
	if s.GovInfo == nil || s.GovInfo.APIKey == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "%s", ErrMissingAPIKey), types.StampedMeta(start))
	}

	summary, summaryURL, err := s.GovInfo.Summary(ctx, id)
	if err != nil {
		return failure(err, start)
	}

	download, _ := summary["download"].(map[string]any)
	link := firstString(download, granuleLinks[fmtName]...)
	if link == "" {
		env := types.Failure(types.NewError(types.CodeNotFound, "No %s download link found", fmtName), types.StampedMeta(start))
		env.Data = summaryURLData{SummaryURL: summaryURL}
		return env
	}

	data := GranuleSummaryData{
		PackageID:   id.PackageID,
		GranuleID:   id.GranuleID,
		Format:      fmtName,
		SummaryURL:  summaryURL,
		DownloadURL: link,
		Summary:     summary,
	}
	if fmtName != FormatPDF {
		fetch, key := link, ""
		if s.GovInfo.ownsLink(link) {
			fetch, key = s.GovInfo.withKey(link), s.GovInfo.APIKey
		}
		content, contentType, err := s.download(ctx, fetch, s.GovInfo.MaxAttempts, key)
		if err != nil {
			return failure(err, start)
		}
		data.Content = &content
		data.ContentType = contentType
	}
	return types.Success(data, types.StampedMeta(start))
}

// DocumentSummary fetches one Federal Register document record and, for htm
// and xml, its rendition. A failed rendition download leaves content null
// rather than failing the call.
func (s *Summaries) DocumentSummary(ctx context.Context, documentID, format string) types.Envelope {
	start := time.Now()
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return types.Failure(types.NewError(types.CodeBadInput, "document_id is required"), types.StampedMeta(start))
	}
	fmtName, ok := NormalizeFormat(format)
	if !ok {
		return types.Failure(types.NewError(types.CodeBadInput, "format must be one of: htm, xml, pdf"), types.StampedMeta(start))
	}

	doc, err := s.FederalRegister.Document(ctx, documentID)
	if err != nil {
		return failure(err, start)
	}

	data := DocumentSummaryData{
		DocumentID:  documentID,
		Format:      fmtName,
		DownloadURL: firstString(doc, documentLinks[fmtName]...),
		Summary:     doc,
	}
	if fmtName != FormatPDF && data.DownloadURL != "" {
		content, contentType, err := s.download(ctx, data.DownloadURL, s.FederalRegister.MaxAttempts, "")
		if err == nil {
			data.Content = &content
			data.ContentType = contentType
		}
	}
	return types.Success(data, types.StampedMeta(start))
}

func (s *Summaries) download(ctx context.Context, link string, maxAttempts int, apiKey string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", "", fmt.Errorf("creating request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	client := s.ContentClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.Send(ctx, client, req, maxAttempts)
	if err != nil {
		return "", "", fmt.Errorf("downloading content: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", "", fmt.Errorf("reading content: %w", err)
	}
	return string(body), resp.Header.Get("Content-Type"), nil
}
