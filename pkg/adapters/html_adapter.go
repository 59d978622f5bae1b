package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/net/html"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// contextRadius is how many characters of raw HTML around an anchor feed the
// candidate filter and the hint extractors.
const contextRadius = 240

// anchorRe locates anchors in raw index HTML. The byte offsets of each match
// define the context window, which a DOM walk cannot provide; see the DOM
// uses in extractTitle for where a real parser is the better tool.
var anchorRe = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"']+)["'][^>]*>(.*?)</a>`)

// HTMLAdapter is the shared discovery driver. Concrete adapters provide the
// organization identity and a static map from document category to the index
// URLs listing that category.
// Counter receives discovery-time counter increments. *metrics.Registry
// satisfies it.
type Counter interface {
	Add(name string, value float64)
}

type HTMLAdapter struct {
	name      string
	rfmo      string
	indexes   map[models.DocumentCategory][]string
	userAgent string
	client    *http.Client
	counter   Counter
	log       hclog.Logger
}

// SetCounter wires a metrics counter for filtered-out accounting.
func (a *HTMLAdapter) SetCounter(c Counter) {
	a.counter = c
}

// NewHTMLAdapter builds the base adapter. Index iteration order follows
// MeasureCategories then the remaining categories, so discovery output is
// stable across runs.
func NewHTMLAdapter(name, rfmo string, indexes map[models.DocumentCategory][]string, opts RegistryOptions) *HTMLAdapter {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &HTMLAdapter{
		name:      name,
		rfmo:      rfmo,
		indexes:   indexes,
		userAgent: opts.UserAgent,
		client:    &http.Client{Timeout: opts.Timeout},
		counter:   opts.Counter,
		log:       log.Named(name),
	}
}

// Name returns the registry key.
func (a *HTMLAdapter) Name() string { return a.name }

// RFMO returns the organization code.
func (a *HTMLAdapter) RFMO() string { return a.rfmo }

// UserAgent returns the configured outbound User-Agent string.
func (a *HTMLAdapter) UserAgent() string { return a.userAgent }

// categoryOrder returns the adapter's categories in a stable order.
func (a *HTMLAdapter) categoryOrder() []models.DocumentCategory {
	ordered := make([]models.DocumentCategory, 0, len(a.indexes))
	for _, cat := range append(models.MeasureCategories(), models.CategoryMeetingDecisions, models.CategoryOther) {
		if _, ok := a.indexes[cat]; ok {
			ordered = append(ordered, cat)
		}
	}
	return ordered
}

// ListDocuments walks every (category, index URL) pair, extracts anchors
// with their context windows, and emits a DocumentRef for each link that
// survives the candidate filter.
func (a *HTMLAdapter) ListDocuments(ctx context.Context) ([]models.DocumentRef, error) {
	var refs []models.DocumentRef
	seen := make(map[string]bool)
	filteredOut := 0

	for _, category := range a.categoryOrder() {
		for _, indexURL := range a.indexes[category] {
			body, err := a.get(ctx, indexURL)
			if err != nil {
				return nil, &DiscoveryError{Adapter: a.name, IndexURL: indexURL, Err: err}
			}

			base, err := url.Parse(indexURL)
			if err != nil {
				return nil, &DiscoveryError{Adapter: a.name, IndexURL: indexURL, Err: err}
			}

			for _, anchor := range extractAnchors(string(body)) {
				absURL, ok := resolveLink(base, anchor.Href)
				if !ok || absURL == indexURL || seen[absURL] {
					continue
				}
				seen[absURL] = true

				if !IsDocumentCandidate(absURL, anchor.Text, anchor.Context) {
					filteredOut++
					continue
				}

				refs = append(refs, a.buildRef(category, indexURL, absURL, anchor))
			}
		}
	}

	if a.counter != nil && filteredOut > 0 {
		a.counter.Add("rfmo_documents_filtered_out_total", float64(filteredOut))
	}

	a.log.Info("listed documents",
		"discovered", len(refs),
		"filtered_out", filteredOut,
	)

	return refs, nil
}

func (a *HTMLAdapter) buildRef(category models.DocumentCategory, indexURL, absURL string, anchor anchorMatch) models.DocumentRef {
	hintText := anchor.Text + " " + CleanText(anchor.Context)
	return models.DocumentRef{
		RFMO:             a.rfmo,
		SourceURL:        absURL,
		DocumentType:     category,
		IndexURL:         indexURL,
		TitleHint:        TitleHint(anchor.Text, absURL),
		PublishedDate:    ExtractDate(CleanText(anchor.Context)),
		DocumentNumber:   DocumentNumber(hintText),
		MeetingReference: MeetingReference(hintText),
		RFMORegion:       RegionFor(a.rfmo),
		DiscoveredAt:     time.Now().UTC(),
		Metadata:         map[string]string{"adapter": a.name},
	}
}

// FetchDocument issues a GET for the ref's source URL. Any network failure
// or non-2xx status is a FetchError; an empty body is not an error.
func (a *HTMLAdapter) FetchDocument(ctx context.Context, ref models.DocumentRef) (*models.RawDocument, error) {
	body, headers, status, err := a.getFull(ctx, ref.SourceURL)
	if err != nil {
		return nil, &FetchError{URL: ref.SourceURL, Err: err}
	}
	return &models.RawDocument{
		SourceURL:   ref.SourceURL,
		StatusCode:  status,
		Headers:     headers,
		ContentType: headers["Content-Type"],
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// ExtractMetadata fills a ParsedDocument skeleton. HTML bodies contribute
// their <title> and a publication date re-extracted from the page text;
// everything else carries the ref's hints through verbatim.
func (a *HTMLAdapter) ExtractMetadata(raw *models.RawDocument, ref models.DocumentRef) *models.ParsedDocument {
	parsed := &models.ParsedDocument{
		Title:            ref.TitleHint,
		PublicationDate:  ref.PublishedDate,
		DocumentCategory: ref.DocumentType,
		DocumentNumber:   ref.DocumentNumber,
		MeetingReference: ref.MeetingReference,
		RFMORegion:       ref.RFMORegion,
		ParserInfo:       map[string]string{},
	}

	ctype := strings.ToLower(raw.ContentType)
	lowerURL := strings.ToLower(raw.SourceURL)
	if strings.Contains(ctype, "html") || strings.HasSuffix(lowerURL, ".html") || strings.HasSuffix(lowerURL, ".htm") {
		page := string(raw.Body)
		if title := extractTitle(page); title != "" {
			parsed.Title = truncate(title, maxTitleLength)
		}
		if date := ExtractDate(CleanText(page)); date != nil {
			parsed.PublicationDate = date
		}
	}
	return parsed
}

func (a *HTMLAdapter) get(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, _, err := a.getFull(ctx, rawURL)
	return body, err
}

func (a *HTMLAdapter) getFull(ctx context.Context, rawURL string) ([]byte, map[string]string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, 0, err
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, resp.StatusCode, err
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}
	return body, headers, resp.StatusCode, nil
}

// anchorMatch is one anchor with its raw-HTML context window.
type anchorMatch struct {
	Href    string
	Text    string
	Context string
}

// extractAnchors finds every anchor and its surrounding raw-HTML window.
func extractAnchors(page string) []anchorMatch {
	var anchors []anchorMatch
	for _, idx := range anchorRe.FindAllStringSubmatchIndex(page, -1) {
		href := strings.TrimSpace(page[idx[2]:idx[3]])
		text := strings.TrimSpace(page[idx[4]:idx[5]])

		start := idx[0] - contextRadius
		if start < 0 {
			start = 0
		}
		end := idx[1] + contextRadius
		if end > len(page) {
			end = len(page)
		}

		anchors = append(anchors, anchorMatch{
			Href:    href,
			Text:    text,
			Context: page[start:end],
		})
	}
	return anchors
}

// resolveLink resolves an href against the index URL and strips any
// fragment. Unparseable hrefs are dropped.
func resolveLink(base *url.URL, href string) (string, bool) {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
		return href, true // kept absolute so the filter can reject by scheme
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String(), true
}

// extractTitle pulls the <title> element text from an HTML page.
func extractTitle(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = CleanText(sb.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
