package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// ChangeDecision is the change detector's verdict for one fetched document.
type ChangeDecision struct {
	ShouldIngest      bool
	Reasons           []models.IngestReason
	NextVersionNumber int
}

// SHA256Hex returns the lowercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MetadataSignature is the fixed tuple whose hash detects metadata drift.
// Field order is the serialization order, so the hash is deterministic
// across runs.
type MetadataSignature struct {
	SourceURL        string  `json:"source_url"`
	RFMO             string  `json:"rfmo"`
	DocumentType     string  `json:"document_type"`
	PublishedDate    *string `json:"published_date"`
	Title            string  `json:"title"`
	DocumentNumber   string  `json:"document_number"`
	MeetingReference string  `json:"meeting_reference"`
	RFMORegion       string  `json:"rfmo_region"`
	ETag             *string `json:"etag"`
	LastModified     *string `json:"last_modified"`
	ContentType      string  `json:"content_type"`
}

// Hash returns the SHA-256 of the signature's stable serialization.
func (sig MetadataSignature) Hash() string {
	payload, _ := json.Marshal(sig)
	return SHA256Hex(payload)
}

// NewMetadataSignature assembles the signature from the ref, the raw
// response, and the parsed metadata.
func NewMetadataSignature(ref models.DocumentRef, raw *models.RawDocument, parsed *models.ParsedDocument, etag, lastModified *string) MetadataSignature {
	return MetadataSignature{
		SourceURL:        ref.SourceURL,
		RFMO:             ref.RFMO,
		DocumentType:     string(ref.DocumentType),
		PublishedDate:    isoDate(parsed.PublicationDate),
		Title:            parsed.Title,
		DocumentNumber:   parsed.DocumentNumber,
		MeetingReference: parsed.MeetingReference,
		RFMORegion:       parsed.RFMORegion,
		ETag:             etag,
		LastModified:     lastModified,
		ContentType:      raw.ContentType,
	}
}

func isoDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// DetectChange decides whether a fetched document warrants a new version.
// With no prior version the answer is always yes (new_url, version 1).
// Otherwise each differing hash contributes its reason; when all hashes
// match, a changed ETag or Last-Modified header still counts as metadata
// drift, but only when both sides carry the header.
func DetectChange(
	latest *models.DocumentVersion,
	fileHash, contentHash, metadataHash string,
	etag, lastModified *string,
) ChangeDecision {
	if latest == nil {
		return ChangeDecision{
			ShouldIngest:      true,
			Reasons:           []models.IngestReason{models.ReasonNewURL},
			NextVersionNumber: 1,
		}
	}

	var reasons []models.IngestReason
	if latest.FileHash != fileHash {
		reasons = append(reasons, models.ReasonFileHashChanged)
	}
	if latest.ContentHash != contentHash {
		reasons = append(reasons, models.ReasonPageContentChanged)
	}
	if latest.MetadataHash != metadataHash {
		reasons = append(reasons, models.ReasonMetadataChanged)
	}

	if len(reasons) == 0 && (headerChanged(etag, latest.ETag) || headerChanged(lastModified, latest.LastModified)) {
		reasons = append(reasons, models.ReasonMetadataChanged)
	}

	decision := ChangeDecision{
		ShouldIngest:      len(reasons) > 0,
		Reasons:           reasons,
		NextVersionNumber: latest.VersionNumber,
	}
	if decision.ShouldIngest {
		decision.NextVersionNumber = latest.VersionNumber + 1
	}
	return decision
}

func headerChanged(current, stored *string) bool {
	return current != nil && stored != nil && *current != *stored
}
