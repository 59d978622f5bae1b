package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunMetrics are the counters accumulated over a single RunOnce call.
type RunMetrics struct {
	StartedAt           time.Time  `json:"started_at"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
	DurationSeconds     float64    `json:"duration_seconds"`
	DocumentsDiscovered int        `json:"documents_discovered"`
	DocumentsFetched    int        `json:"documents_fetched"`
	DocumentsIngested   int        `json:"documents_ingested"`
	DocumentsSkipped    int        `json:"documents_skipped"`
	Failures            int        `json:"failures"`
	ParseFailures       int        `json:"parse_failures"`
	StorageBytesWritten int64      `json:"storage_bytes_written"`
}

// IngestionRunResult is the full accounting for one run: metrics, the
// per-adapter health snapshots emitted during the run, and every error
// string collected along the way.
type IngestionRunResult struct {
	RunID        string         `json:"run_id"`
	Metrics      RunMetrics     `json:"metrics"`
	SourceHealth []SourceHealth `json:"source_health"`
	Errors       []string       `json:"errors"`
}

// IngestionRun persists a run result as an opaque JSON payload.
type IngestionRun struct {
	RunID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"run_id"`
	PayloadJSON string    `gorm:"type:text;not null" json:"payload_json"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name.
func (IngestionRun) TableName() string {
	return "ingestion_runs"
}

// Create inserts the run row.
func (r *IngestionRun) Create(db *gorm.DB) error {
	return db.Create(r).Error
}

// LatestRun returns the most recently persisted run result, or nil when no
// run has completed yet.
func LatestRun(db *gorm.DB) (*IngestionRunResult, error) {
	var row IngestionRun
	err := db.Order("created_at DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result IngestionRunResult
	if err := json.Unmarshal([]byte(row.PayloadJSON), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
