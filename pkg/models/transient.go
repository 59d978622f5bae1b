package models

import (
	"strings"
	"time"
)

// DocumentRef is a transient, uncommitted pointer to a candidate document
// discovered on an index page. It carries the hints extracted from the anchor
// text and its surrounding context; nothing here is persisted until the
// engine upserts a Document.
type DocumentRef struct {
	RFMO             string
	SourceURL        string
	DocumentType     DocumentCategory
	IndexURL         string
	TitleHint        string
	PublishedDate    *time.Time
	DocumentNumber   string
	MeetingReference string
	RFMORegion       string
	DiscoveredAt     time.Time
	Metadata         map[string]string
}

// RawDocument is the result of fetching a DocumentRef. Headers preserve the
// server's original casing; use Header for lookups.
type RawDocument struct {
	SourceURL   string
	StatusCode  int
	Headers     map[string]string
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Header returns the first header whose name matches case-insensitively.
func (r *RawDocument) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ParsedDocument is the parse service output: normalized text plus the
// metadata the adapter extracted or carried through from the ref.
type ParsedDocument struct {
	Title            string
	PublicationDate  *time.Time
	DocumentCategory DocumentCategory
	DocumentNumber   string
	MeetingReference string
	RFMORegion       string
	ExtractedText    string
	SnapshotHTML     string
	ParserInfo       map[string]string
}
