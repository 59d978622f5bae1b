package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestDetectChangeFirstSighting(t *testing.T) {
	decision := DetectChange(nil, "f1", "c1", "m1", nil, nil)

	assert.True(t, decision.ShouldIngest)
	assert.Equal(t, []models.IngestReason{models.ReasonNewURL}, decision.Reasons)
	assert.Equal(t, 1, decision.NextVersionNumber)
}

func TestDetectChangeRules(t *testing.T) {
	latest := &models.DocumentVersion{
		VersionNumber: 3,
		FileHash:      "f1",
		ContentHash:   "c1",
		MetadataHash:  "m1",
		ETag:          strPtr(`"abc"`),
		LastModified:  strPtr("Mon, 02 Jan 2006 15:04:05 GMT"),
	}

	tests := []struct {
		name         string
		fileHash     string
		contentHash  string
		metadataHash string
		etag         *string
		lastModified *string
		wantIngest   bool
		wantReasons  []models.IngestReason
	}{
		{
			name:         "all hashes match",
			fileHash:     "f1",
			contentHash:  "c1",
			metadataHash: "m1",
			etag:         strPtr(`"abc"`),
			lastModified: strPtr("Mon, 02 Jan 2006 15:04:05 GMT"),
			wantIngest:   false,
		},
		{
			name:         "file hash changed",
			fileHash:     "f2",
			contentHash:  "c1",
			metadataHash: "m1",
			wantIngest:   true,
			wantReasons:  []models.IngestReason{models.ReasonFileHashChanged},
		},
		{
			name:         "file and content changed",
			fileHash:     "f2",
			contentHash:  "c2",
			metadataHash: "m1",
			wantIngest:   true,
			wantReasons: []models.IngestReason{
				models.ReasonFileHashChanged,
				models.ReasonPageContentChanged,
			},
		},
		{
			name:         "metadata hash changed",
			fileHash:     "f1",
			contentHash:  "c1",
			metadataHash: "m2",
			wantIngest:   true,
			wantReasons:  []models.IngestReason{models.ReasonMetadataChanged},
		},
		{
			name:         "etag rotated with identical hashes",
			fileHash:     "f1",
			contentHash:  "c1",
			metadataHash: "m1",
			etag:         strPtr(`"def"`),
			wantIngest:   true,
			wantReasons:  []models.IngestReason{models.ReasonMetadataChanged},
		},
		{
			name:         "last-modified rotated with identical hashes",
			fileHash:     "f1",
			contentHash:  "c1",
			metadataHash: "m1",
			lastModified: strPtr("Tue, 03 Jan 2006 15:04:05 GMT"),
			wantIngest:   true,
			wantReasons:  []models.IngestReason{models.ReasonMetadataChanged},
		},
		{
			name:         "new header appearing alone is not a change",
			fileHash:     "f1",
			contentHash:  "c1",
			metadataHash: "m1",
			etag:         nil,
			lastModified: nil,
			wantIngest:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := DetectChange(latest, tt.fileHash, tt.contentHash, tt.metadataHash, tt.etag, tt.lastModified)

			assert.Equal(t, tt.wantIngest, decision.ShouldIngest)
			assert.Equal(t, tt.wantReasons, decision.Reasons)
			if tt.wantIngest {
				assert.Equal(t, 4, decision.NextVersionNumber)
			} else {
				assert.Equal(t, 3, decision.NextVersionNumber)
			}
		})
	}
}

func TestDetectChangeHeaderMissingOnOneSide(t *testing.T) {
	// Header drift only counts when both stored and current carry the
	// header.
	latest := &models.DocumentVersion{
		VersionNumber: 1,
		FileHash:      "f1",
		ContentHash:   "c1",
		MetadataHash:  "m1",
	}
	decision := DetectChange(latest, "f1", "c1", "m1", strPtr(`"abc"`), nil)
	assert.False(t, decision.ShouldIngest)
}

func TestMetadataSignatureDeterministic(t *testing.T) {
	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ref := models.DocumentRef{
		RFMO:         "ICCAT",
		SourceURL:    "https://example.org/doc.pdf",
		DocumentType: models.CategoryRecommendationsResolutions,
	}
	raw := &models.RawDocument{ContentType: "application/pdf"}
	parsed := &models.ParsedDocument{
		Title:           "REC 24-01",
		PublicationDate: &published,
	}

	first := NewMetadataSignature(ref, raw, parsed, strPtr(`"e"`), nil).Hash()
	second := NewMetadataSignature(ref, raw, parsed, strPtr(`"e"`), nil).Hash()
	require.Equal(t, first, second)
	assert.Len(t, first, 64)

	parsed.Title = "REC 24-01 (amended)"
	assert.NotEqual(t, first, NewMetadataSignature(ref, raw, parsed, strPtr(`"e"`), nil).Hash())
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		SHA256Hex(nil))
}
