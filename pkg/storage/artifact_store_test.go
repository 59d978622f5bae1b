package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

func testDocument() *models.Document {
	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return &models.Document{
		ID:              uuid.New(),
		RFMO:            "ICCAT",
		SourceURL:       "https://example.org/docs/rec-24-01.pdf",
		DocumentType:    models.CategoryRecommendationsResolutions,
		PublicationDate: &published,
	}
}

func TestVersionDirLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewWithFs(fs, "/artifacts", nil)
	doc := testDocument()

	dir := store.VersionDir(doc, 2)
	assert.Equal(t,
		filepath.Join("/artifacts", "iccat", "2024", doc.ID.String(), "v2"),
		dir)
}

func TestVersionDirFallsBackToCurrentYear(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewWithFs(fs, "/artifacts", nil)
	doc := testDocument()
	doc.PublicationDate = nil

	year := time.Now().UTC().Format("2006")
	assert.Contains(t, store.VersionDir(doc, 1), "/"+year+"/")
}

func TestPersistWritesAllArtifacts(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewWithFs(fs, "/artifacts", nil)
	doc := testDocument()

	raw := &models.RawDocument{
		SourceURL:   doc.SourceURL,
		ContentType: "text/html",
		Body:        []byte("<html><body>v1</body></html>"),
	}
	parsed := &models.ParsedDocument{
		ExtractedText: "v1",
		SnapshotHTML:  "<html><body>v1</body></html>",
	}
	metadata := map[string]interface{}{
		"title": "Thon rouge de l'Atlantique — quota",
	}

	result, err := store.Persist(doc, 1, raw, parsed, metadata)
	require.NoError(t, err)

	dir := store.VersionDir(doc, 1)
	assert.Equal(t, filepath.Join(dir, "raw.html"), result.RawPath)
	assert.Equal(t, filepath.Join(dir, "extracted.txt"), result.ExtractedTextPath)
	assert.Equal(t, filepath.Join(dir, "metadata.json"), result.MetadataPath)
	require.NotNil(t, result.SnapshotHTMLPath)
	assert.Equal(t, filepath.Join(dir, "snapshot.html"), *result.SnapshotHTMLPath)
	assert.Greater(t, result.BytesWritten, int64(0))

	body, err := afero.ReadFile(fs, result.RawPath)
	require.NoError(t, err)
	assert.Equal(t, raw.Body, body)

	// The metadata sidecar must be pure ASCII.
	meta, err := afero.ReadFile(fs, result.MetadataPath)
	require.NoError(t, err)
	for _, b := range meta {
		assert.Less(t, b, byte(0x80))
	}
	assert.Contains(t, string(meta), `\u2014`)
}

func TestPersistWithoutSnapshotLeavesPathNil(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewWithFs(fs, "/artifacts", nil)
	doc := testDocument()

	raw := &models.RawDocument{SourceURL: doc.SourceURL, ContentType: "application/pdf", Body: []byte("%PDF")}
	parsed := &models.ParsedDocument{ExtractedText: "text"}

	result, err := store.Persist(doc, 1, raw, parsed, map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, result.SnapshotHTMLPath)

	exists, err := afero.Exists(fs, filepath.Join(store.VersionDir(doc, 1), "snapshot.html"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPersistRefusesExistingVersionDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewWithFs(fs, "/artifacts", nil)
	doc := testDocument()

	raw := &models.RawDocument{SourceURL: doc.SourceURL, ContentType: "application/pdf", Body: []byte("%PDF")}
	parsed := &models.ParsedDocument{ExtractedText: "text"}

	_, err := store.Persist(doc, 1, raw, parsed, map[string]interface{}{})
	require.NoError(t, err)

	_, err = store.Persist(doc, 1, raw, parsed, map[string]interface{}{})
	require.Error(t, err)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Error(), "already exists")
}

func TestRawExtension(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
		want        string
	}{
		{"application/pdf", "https://example.org/x", ".pdf"},
		{"text/html; charset=utf-8", "https://example.org/x", ".html"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "https://example.org/x", ".docx"},
		{"", "https://example.org/doc.pdf", ".pdf"},
		{"", "https://example.org/page.htm", ".html"},
		{"application/octet-stream", "https://example.org/blob", ".bin"},
	}
	for _, tt := range tests {
		raw := &models.RawDocument{ContentType: tt.contentType, SourceURL: tt.url}
		assert.Equal(t, tt.want, rawExtension(raw), "content-type %q url %q", tt.contentType, tt.url)
	}
}

func TestMarshalMetadataEscapesAstralPlanes(t *testing.T) {
	out, err := marshalMetadata(map[string]interface{}{"note": "fish \U0001F41F"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `\ud83d\udc1f`)
}
