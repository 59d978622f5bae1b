// Package storage implements the versioned artifact store: a filesystem
// hierarchy holding raw bytes, extracted text, HTML snapshot, and a metadata
// sidecar per document version.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// StorageError wraps any filesystem failure during persistence.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact store: %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistResult reports where a version's artifacts landed and how many
// bytes hit the disk.
type PersistResult struct {
	RawPath           string
	ExtractedTextPath string
	SnapshotHTMLPath  *string
	MetadataPath      string
	BytesWritten      int64
}

// ArtifactStore writes version artifacts under
// <root>/<rfmo lowercased>/<year>/<document_id>/v<version_number>/.
type ArtifactStore struct {
	fs   afero.Fs
	root string
	log  hclog.Logger
}

// New creates an artifact store rooted at root on the OS filesystem.
func New(root string, log hclog.Logger) *ArtifactStore {
	return NewWithFs(afero.NewOsFs(), root, log)
}

// NewWithFs creates an artifact store over an arbitrary filesystem.
// Tests use an in-memory one.
func NewWithFs(fs afero.Fs, root string, log hclog.Logger) *ArtifactStore {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &ArtifactStore{fs: fs, root: root, log: log}
}

// Root returns the artifact root directory.
func (s *ArtifactStore) Root() string {
	return s.root
}

// Fs returns the underlying filesystem.
func (s *ArtifactStore) Fs() afero.Fs {
	return s.fs
}

// VersionDir returns the directory a version's artifacts live in. Year is the
// publication year, falling back to the current UTC year.
func (s *ArtifactStore) VersionDir(doc *models.Document, versionNumber int) string {
	year := time.Now().UTC().Year()
	if doc.PublicationDate != nil {
		year = doc.PublicationDate.Year()
	}
	return filepath.Join(
		s.root,
		strings.ToLower(doc.RFMO),
		fmt.Sprintf("%d", year),
		doc.ID.String(),
		fmt.Sprintf("v%d", versionNumber),
	)
}

// Persist writes the raw body, extracted text, metadata sidecar, and (when
// present) the HTML snapshot for one version. It refuses to reuse an
// existing version directory: version numbers are never recycled.
func (s *ArtifactStore) Persist(
	doc *models.Document,
	versionNumber int,
	raw *models.RawDocument,
	parsed *models.ParsedDocument,
	metadata map[string]interface{},
) (*PersistResult, error) {
	dir := s.VersionDir(doc, versionNumber)

	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, &StorageError{Path: dir, Err: err}
	}
	if exists {
		return nil, &StorageError{Path: dir, Err: fmt.Errorf("version directory already exists")}
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Path: dir, Err: err}
	}

	result := &PersistResult{
		RawPath:           filepath.Join(dir, "raw"+rawExtension(raw)),
		ExtractedTextPath: filepath.Join(dir, "extracted.txt"),
		MetadataPath:      filepath.Join(dir, "metadata.json"),
	}

	if err := s.writeFile(result.RawPath, raw.Body, &result.BytesWritten); err != nil {
		return nil, err
	}
	if err := s.writeFile(result.ExtractedTextPath, []byte(parsed.ExtractedText), &result.BytesWritten); err != nil {
		return nil, err
	}

	payload, err := marshalMetadata(metadata)
	if err != nil {
		return nil, &StorageError{Path: result.MetadataPath, Err: err}
	}
	if err := s.writeFile(result.MetadataPath, payload, &result.BytesWritten); err != nil {
		return nil, err
	}

	if parsed.SnapshotHTML != "" {
		snapshotPath := filepath.Join(dir, "snapshot.html")
		if err := s.writeFile(snapshotPath, []byte(parsed.SnapshotHTML), &result.BytesWritten); err != nil {
			return nil, err
		}
		result.SnapshotHTMLPath = &snapshotPath
	}

	s.log.Debug("persisted version artifacts",
		"dir", dir,
		"bytes", result.BytesWritten,
	)

	return result, nil
}

func (s *ArtifactStore) writeFile(path string, data []byte, bytesWritten *int64) error {
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	info, err := s.fs.Stat(path)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	*bytesWritten += info.Size()
	return nil
}

// rawExtension picks the raw artifact extension from the content type,
// falling back to the URL suffix, then ".bin".
func rawExtension(raw *models.RawDocument) string {
	ctype := strings.ToLower(raw.ContentType)
	urlLower := strings.ToLower(raw.SourceURL)

	switch {
	case strings.Contains(ctype, "pdf"):
		return ".pdf"
	case strings.Contains(ctype, "html"):
		return ".html"
	case strings.Contains(ctype, "word"):
		return ".docx"
	case strings.HasSuffix(urlLower, ".pdf"):
		return ".pdf"
	case strings.HasSuffix(urlLower, ".html"), strings.HasSuffix(urlLower, ".htm"):
		return ".html"
	case strings.HasSuffix(urlLower, ".docx"):
		return ".docx"
	}
	return ".bin"
}

// marshalMetadata renders the sidecar as pretty-printed, ASCII-safe JSON so
// the files diff cleanly regardless of source-page encoding.
func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	pretty, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	return escapeNonASCII(pretty), nil
}

func escapeNonASCII(in []byte) []byte {
	var b strings.Builder
	for _, r := range string(in) {
		switch {
		case r < 128:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			b.WriteString(fmt.Sprintf("\\u%04x\\u%04x", hi, lo))
		default:
			b.WriteString(fmt.Sprintf("\\u%04x", r))
		}
	}
	return []byte(b.String())
}
