package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentVersion is an immutable snapshot of a document's bytes, derived
// text, and metadata. Versions are append-only: version numbers per document
// are contiguous from 1 and no row is ever mutated or deleted by the engine.
type DocumentVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DocumentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_versions_document_number;index:idx_versions_document,sort:desc" json:"document_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_versions_document_number" json:"version_number"`

	FileHash     string  `gorm:"type:varchar(64);not null" json:"file_hash"`
	ETag         *string `gorm:"column:etag;type:varchar(255)" json:"etag,omitempty"`
	LastModified *string `gorm:"type:varchar(255)" json:"last_modified,omitempty"`
	MetadataHash string  `gorm:"type:varchar(64)" json:"metadata_hash"`
	ContentHash  string  `gorm:"type:varchar(64)" json:"content_hash"`

	Status ProcessingStatus `gorm:"type:varchar(20);not null;default:'ingested'" json:"status"`

	// Artifact locations. Every non-nil path exists on disk at commit time.
	StoredPath        string  `gorm:"type:varchar(1024);not null" json:"stored_path"`
	ExtractedTextPath string  `gorm:"type:varchar(1024);not null" json:"extracted_text_path"`
	SnapshotHTMLPath  *string `gorm:"type:varchar(1024)" json:"snapshot_html_path,omitempty"`
	MetadataPath      string  `gorm:"type:varchar(1024);not null" json:"metadata_path"`
}

// TableName specifies the table name.
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// BeforeCreate hook to ensure the ID and status are set.
func (v *DocumentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = StatusIngested
	}
	return nil
}

// GetLatestVersion returns the highest-numbered version for a document, or
// gorm.ErrRecordNotFound when the document has no versions.
func GetLatestVersion(db *gorm.DB, documentID uuid.UUID) (*DocumentVersion, error) {
	var version DocumentVersion
	err := db.Where("document_id = ?", documentID).
		Order("version_number DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// GetVersions returns all versions for a document in ascending order.
func GetVersions(db *gorm.DB, documentID uuid.UUID) ([]DocumentVersion, error) {
	var versions []DocumentVersion
	err := db.Where("document_id = ?", documentID).
		Order("version_number ASC").
		Find(&versions).Error
	return versions, err
}
