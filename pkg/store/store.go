// Package store implements the transactional metadata store over GORM.
// All connection use is serialized behind a single mutex so the metrics
// endpoint thread can coexist with the run thread; two processes sharing
// one database are not supported.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// MetadataError wraps any database failure so the engine can classify it.
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata store: %s: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Store is the single-process metadata store.
type Store struct {
	mu  sync.Mutex
	db  *gorm.DB
	log hclog.Logger
}

// New creates a store over an already-connected database.
func New(db *gorm.DB, log hclog.Logger) *Store {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Store{db: db, log: log}
}

// GetDocument retrieves a document by (rfmo, source_url). Returns nil when
// none exists.
func (s *Store) GetDocument(rfmo, sourceURL string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDocumentLocked(rfmo, sourceURL)
}

func (s *Store) getDocumentLocked(rfmo, sourceURL string) (*models.Document, error) {
	doc := models.Document{RFMO: rfmo, SourceURL: sourceURL}
	err := doc.Get(s.db)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, &MetadataError{Op: "get document", Err: err}
	}
	return &doc, nil
}

// UpsertDocumentDiscovered records a discovery. First discovery inserts a new
// document with status "discovered"; re-discovery refreshes document_type and
// updated_at, and fills title and publication_date only when they were never
// set before.
func (s *Store) UpsertDocumentDiscovered(ref models.DocumentRef) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getDocumentLocked(ref.RFMO, ref.SourceURL)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		updates := map[string]interface{}{
			"document_type": ref.DocumentType,
			"updated_at":    time.Now().UTC(),
		}
		if existing.Title == "" && ref.TitleHint != "" {
			updates["title"] = ref.TitleHint
			existing.Title = ref.TitleHint
		}
		if existing.PublicationDate == nil && ref.PublishedDate != nil {
			updates["publication_date"] = ref.PublishedDate
			existing.PublicationDate = ref.PublishedDate
		}
		if err := s.db.Model(existing).Updates(updates).Error; err != nil {
			return nil, &MetadataError{Op: "update discovered document", Err: err}
		}
		existing.DocumentType = ref.DocumentType
		return existing, nil
	}

	doc := models.Document{
		RFMO:            ref.RFMO,
		SourceURL:       ref.SourceURL,
		DocumentType:    ref.DocumentType,
		Title:           ref.TitleHint,
		PublicationDate: ref.PublishedDate,
		Status:          models.StatusDiscovered,
	}
	if err := doc.Create(s.db); err != nil {
		return nil, &MetadataError{Op: "create discovered document", Err: err}
	}
	return &doc, nil
}

// GetLatestVersion returns the highest-numbered version for a document, or
// nil when the document has none.
func (s *Store) GetLatestVersion(documentID uuid.UUID) (*models.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := models.GetLatestVersion(s.db, documentID)
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, &MetadataError{Op: "get latest version", Err: err}
	}
	return version, nil
}

// ListVersions returns all versions for a document in ascending order.
func (s *Store) ListVersions(documentID uuid.UUID) ([]models.DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := models.GetVersions(s.db, documentID)
	if err != nil {
		return nil, &MetadataError{Op: "list versions", Err: err}
	}
	return versions, nil
}

// CreateVersion inserts a version and updates the parent document's
// latest_version, latest_file_hash, and status in one transaction.
func (s *Store) CreateVersion(version *models.DocumentVersion, status models.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		return tx.Model(&models.Document{}).
			Where("id = ?", version.DocumentID).
			Updates(map[string]interface{}{
				"latest_version":   version.VersionNumber,
				"latest_file_hash": version.FileHash,
				"status":           status,
				"updated_at":       time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return &MetadataError{Op: "create version", Err: err}
	}
	return nil
}

// MarkDocumentStatus updates a document's processing status.
func (s *Store) MarkDocumentStatus(documentID uuid.UUID, status models.ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Model(&models.Document{}).
		Where("id = ?", documentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return &MetadataError{Op: "mark document status", Err: err}
	}
	return nil
}

// GetSourceHealth returns the health row for an adapter, or a zero-valued
// row when the adapter has never run.
func (s *Store) GetSourceHealth(adapterName, rfmo string) (*models.SourceHealth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	health := models.SourceHealth{AdapterName: adapterName}
	err := health.Get(s.db)
	if err == gorm.ErrRecordNotFound {
		return &models.SourceHealth{AdapterName: adapterName, RFMO: rfmo}, nil
	}
	if err != nil {
		return nil, &MetadataError{Op: "get source health", Err: err}
	}
	return &health, nil
}

// UpsertSourceHealth inserts or replaces an adapter's health row.
func (s *Store) UpsertSourceHealth(health *models.SourceHealth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := health.Upsert(s.db); err != nil {
		return &MetadataError{Op: "upsert source health", Err: err}
	}
	return nil
}

// ListSourceHealth returns all health rows ordered by adapter name.
func (s *Store) ListSourceHealth() ([]models.SourceHealth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows models.SourceHealths
	if err := rows.FindAll(s.db); err != nil {
		return nil, &MetadataError{Op: "list source health", Err: err}
	}
	return rows, nil
}

// SaveRunResult persists the run result payload.
func (s *Store) SaveRunResult(result *models.IngestionRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		return &MetadataError{Op: "marshal run result", Err: err}
	}
	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		return &MetadataError{Op: "parse run id", Err: err}
	}
	run := models.IngestionRun{
		RunID:       runID,
		PayloadJSON: string(payload),
	}
	if err := run.Create(s.db); err != nil {
		return &MetadataError{Op: "save run result", Err: err}
	}
	return nil
}

// LatestRun returns the most recently persisted run result, or nil.
func (s *Store) LatestRun() (*models.IngestionRunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := models.LatestRun(s.db)
	if err != nil {
		return nil, &MetadataError{Op: "latest run", Err: err}
	}
	return result, nil
}

// ListDocuments returns documents, optionally filtered by RFMO.
func (s *Store) ListDocuments(rfmo string) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs models.Documents
	if err := docs.Find(s.db, rfmo); err != nil {
		return nil, &MetadataError{Op: "list documents", Err: err}
	}
	return docs, nil
}
