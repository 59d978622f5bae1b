package parse

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

func TestParseHTML(t *testing.T) {
	svc := New(nil)
	page := `<html><head><title>REC 24-01</title><script>var x = 1;</script></head>` +
		`<body><nav>Home</nav><p>Catch   limits apply.</p><footer>contact</footer></body></html>`
	raw := &models.RawDocument{
		SourceURL:   "https://example.org/doc.html",
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(page),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.NoError(t, err)
	assert.Equal(t, "html", parsed.ParserInfo["parser"])
	assert.Contains(t, parsed.ExtractedText, "Catch limits apply.")
	assert.NotContains(t, parsed.ExtractedText, "var x")
	assert.NotContains(t, parsed.ExtractedText, "Home")
	assert.NotContains(t, parsed.ExtractedText, "contact")
	assert.Equal(t, page, parsed.SnapshotHTML)
}

func TestParseHTMLByURLSuffix(t *testing.T) {
	svc := New(nil)
	raw := &models.RawDocument{
		SourceURL: "https://example.org/doc.htm",
		Body:      []byte("<body>text</body>"),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.NoError(t, err)
	assert.Equal(t, "html", parsed.ParserInfo["parser"])
}

func TestParseDOCX(t *testing.T) {
	svc := New(nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Quota notice</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Effective 2024</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	raw := &models.RawDocument{
		SourceURL:   "https://example.org/notice.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Body:        buf.Bytes(),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.NoError(t, err)
	assert.Equal(t, "docx", parsed.ParserInfo["parser"])
	assert.Contains(t, parsed.ExtractedText, "Quota notice")
	assert.Contains(t, parsed.ExtractedText, "Effective 2024")
}

func TestParseDOCXMalformed(t *testing.T) {
	svc := New(nil)
	raw := &models.RawDocument{
		SourceURL:   "https://example.org/notice.docx",
		ContentType: "application/msword",
		Body:        []byte("not a zip archive"),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "", parsed.ExtractedText)
	assert.NotEmpty(t, parsed.ParserInfo["error"])
}

func TestParsePDFMalformed(t *testing.T) {
	svc := New(nil)
	raw := &models.RawDocument{
		SourceURL:   "https://example.org/doc.pdf",
		ContentType: "application/pdf",
		Body:        []byte("definitely not a pdf"),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.Error(t, err)
	assert.Equal(t, "pdf", parsed.ParserInfo["parser"])
	assert.Equal(t, "", parsed.ExtractedText)
}

func TestParseFallbackDecodesBytes(t *testing.T) {
	svc := New(nil)
	raw := &models.RawDocument{
		SourceURL:   "https://example.org/data",
		ContentType: "text/plain",
		Body:        append([]byte("plain text "), 0xff, 0xfe),
	}

	parsed, err := svc.Parse(raw, &models.ParsedDocument{})
	require.NoError(t, err)
	assert.Equal(t, "bytes_decode", parsed.ParserInfo["parser"])
	assert.Contains(t, parsed.ExtractedText, "plain text")
	assert.True(t, len(parsed.ExtractedText) > 0)
}

func TestParsePreservesBaseMetadata(t *testing.T) {
	svc := New(nil)
	base := &models.ParsedDocument{
		Title:          "REC 24-01",
		DocumentNumber: "REC 2024-01",
		RFMORegion:     "Atlantic Ocean",
	}
	raw := &models.RawDocument{
		SourceURL: "https://example.org/data",
		Body:      []byte("body"),
	}

	parsed, err := svc.Parse(raw, base)
	require.NoError(t, err)
	assert.Equal(t, "REC 24-01", parsed.Title)
	assert.Equal(t, "REC 2024-01", parsed.DocumentNumber)
	assert.Equal(t, "Atlantic Ocean", parsed.RFMORegion)
}
