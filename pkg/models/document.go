package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is the persisted record for a discovered document. Identity is
// (rfmo, source_url); the UUID primary key is an opaque surrogate used in
// artifact paths. LatestVersion mirrors the highest version_number among the
// document's versions, or 0 when none exist yet.
type Document struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RFMO      string `gorm:"column:rfmo;type:varchar(50);not null;index:idx_documents_rfmo;uniqueIndex:idx_documents_rfmo_url" json:"rfmo"`
	SourceURL string `gorm:"type:varchar(2048);not null;uniqueIndex:idx_documents_rfmo_url" json:"source_url"`

	DocumentType    DocumentCategory `gorm:"type:varchar(50);not null" json:"document_type"`
	Title           string           `gorm:"type:varchar(500)" json:"title,omitempty"`
	PublicationDate *time.Time       `json:"publication_date,omitempty"`

	LatestVersion  int              `gorm:"not null;default:0" json:"latest_version"`
	LatestFileHash *string          `gorm:"type:varchar(64)" json:"latest_file_hash,omitempty"`
	Status         ProcessingStatus `gorm:"type:varchar(20);not null;default:'discovered'" json:"status"`

	Versions []DocumentVersion `gorm:"foreignKey:DocumentID" json:"-"`
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate hook to ensure the surrogate ID is set.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = StatusDiscovered
	}
	return nil
}

// Get retrieves a document by (rfmo, source_url).
func (d *Document) Get(db *gorm.DB) error {
	return db.Where("rfmo = ? AND source_url = ?", d.RFMO, d.SourceURL).
		First(d).Error
}

// GetByID retrieves a document by its surrogate ID.
func (d *Document) GetByID(db *gorm.DB) error {
	return db.First(d, "id = ?", d.ID).Error
}

// Create inserts the document.
func (d *Document) Create(db *gorm.DB) error {
	return db.Create(d).Error
}

// Documents is a slice of documents.
type Documents []Document

// Find retrieves documents, optionally filtered by RFMO, most recently
// updated first.
func (ds *Documents) Find(db *gorm.DB, rfmo string) error {
	q := db.Order("updated_at DESC")
	if rfmo != "" {
		q = q.Where("rfmo = ?", rfmo)
	}
	return q.Find(ds).Error
}
