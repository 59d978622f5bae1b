// Package parse turns raw fetched bytes into normalized extracted text.
// Dispatch is by content type with a URL-suffix fallback; every branch
// collapses whitespace so content hashes are stable across cosmetic
// reformatting.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

const (
	maxPDFTextChars      = 2_000_000
	maxFallbackTextChars = 200_000
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParseError reports a non-fatal extraction failure. The document still
// flows through the pipeline with empty text; the engine counts it.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Service extracts text from raw document bodies.
type Service struct {
	log hclog.Logger
}

// New creates a parse service.
func New(log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{log: log}
}

// Parse fills the base ParsedDocument with extracted text, the parser
// diagnostic info, and (for HTML) the page snapshot. A non-nil error means
// the branch failed and the text is empty; the document is still usable.
func (s *Service) Parse(raw *models.RawDocument, base *models.ParsedDocument) (*models.ParsedDocument, error) {
	parsed := *base
	if parsed.ParserInfo == nil {
		parsed.ParserInfo = map[string]string{}
	}

	ctype := strings.ToLower(raw.ContentType)
	urlLower := strings.ToLower(raw.SourceURL)

	switch {
	case strings.Contains(ctype, "pdf") || strings.HasSuffix(urlLower, ".pdf"):
		text, err := extractPDFText(raw.Body)
		parsed.ParserInfo["parser"] = "pdf"
		if err != nil {
			parsed.ParserInfo["error"] = err.Error()
			parsed.ExtractedText = ""
			s.log.Warn("pdf extraction failed", "url", raw.SourceURL, "error", err)
			return &parsed, &ParseError{URL: raw.SourceURL, Err: err}
		}
		parsed.ExtractedText = truncateRunes(collapseWhitespace(text), maxPDFTextChars)

	case strings.Contains(ctype, "html") || strings.HasSuffix(urlLower, ".html") || strings.HasSuffix(urlLower, ".htm"):
		page := string(raw.Body)
		parsed.ExtractedText = collapseWhitespace(visibleHTMLText(page))
		parsed.SnapshotHTML = page
		parsed.ParserInfo["parser"] = "html"

	case strings.Contains(ctype, "word") || strings.HasSuffix(urlLower, ".docx"):
		text, err := extractDOCXText(raw.Body)
		parsed.ParserInfo["parser"] = "docx"
		if err != nil {
			parsed.ParserInfo["error"] = err.Error()
			parsed.ExtractedText = ""
			return &parsed, &ParseError{URL: raw.SourceURL, Err: err}
		}
		parsed.ExtractedText = collapseWhitespace(text)

	default:
		parsed.ExtractedText = truncateRunes(strings.ToValidUTF8(string(raw.Body), "�"), maxFallbackTextChars)
		parsed.ParserInfo["parser"] = "bytes_decode"
	}

	return &parsed, nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
