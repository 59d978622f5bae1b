package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceHealth tracks per-adapter ingestion health: the last successful
// listing and how many consecutive runs have failed since. Invariant:
// ConsecutiveFailures == 0 exactly when LastError is nil.
type SourceHealth struct {
	AdapterName         string     `gorm:"type:varchar(100);primaryKey" json:"adapter_name"`
	RFMO                string     `gorm:"column:rfmo;type:varchar(50);not null" json:"rfmo"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	ConsecutiveFailures int        `gorm:"not null;default:0" json:"consecutive_failures"`
	LastError           *string    `gorm:"type:text" json:"last_error,omitempty"`
}

// TableName specifies the table name.
func (SourceHealth) TableName() string {
	return "source_health"
}

// Upsert inserts or replaces the health row for this adapter.
func (h *SourceHealth) Upsert(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "adapter_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"rfmo", "last_success_at", "consecutive_failures", "last_error"}),
	}).Create(h).Error
}

// Get retrieves the health row by adapter name.
func (h *SourceHealth) Get(db *gorm.DB) error {
	return db.First(h, "adapter_name = ?", h.AdapterName).Error
}

// SourceHealths is a slice of source health rows.
type SourceHealths []SourceHealth

// FindAll retrieves all health rows ordered by adapter name.
func (hs *SourceHealths) FindAll(db *gorm.DB) error {
	return db.Order("adapter_name ASC").Find(hs).Error
}
