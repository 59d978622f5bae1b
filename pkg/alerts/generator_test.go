package alerts

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, fs afero.Fs, dir string, metadata map[string]interface{}, extractedText string, rawName string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))

	payload, err := json.Marshal(metadata)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "metadata.json"), payload, 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "extracted.txt"), []byte(extractedText), 0o644))
	if rawName != "" {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, rawName), []byte("raw"), 0o644))
	}
}

func TestGenerateReportingDeadlineAlert(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "/rfmo/iotc/2026/doc-1/v1", map[string]interface{}{
		"rfmo":           "IOTC",
		"document_type":  "circular_letters",
		"title":          "Mandatory reporting notice",
		"published_date": "2026-02-10",
		"source_url":     "https://iotc.example.org/circ-01.pdf",
	}, "Members shall submit reports by 12/03/2026.", "raw.pdf")

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, TypeReportingDeadline, alert.AlertType)
	assert.Equal(t, SeverityHigh, alert.Severity)
	require.NotNil(t, alert.DueDate)
	assert.Equal(t, "2026-03-12", *alert.DueDate)
	assert.Equal(t, "IOTC", alert.RFMO)
	require.NotNil(t, alert.StoredPath)
	assert.Contains(t, *alert.StoredPath, "raw.pdf")
	assert.Contains(t, alert.WhatChanged, "Deadline: 2026-03-12")
	assert.Contains(t, alert.ActionRequired, "before 2026-03-12")
}

func TestGenerateQuotaAlert(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "/rfmo/iccat/2026/doc-2/v1", map[string]interface{}{
		"rfmo":          "ICCAT",
		"document_type": "circular_letters",
		"title":         "Allocated catch limits for 2026",
	}, "This communication updates allocated catch limits.", "raw.html")

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, TypeQuotaOrAllocation, alerts[0].AlertType)
	assert.Equal(t, SeverityHigh, alerts[0].Severity)
}

func TestGenerateMeetingAndComplianceAndMeasure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "/rfmo/wcpfc/2026/doc-3/v1", map[string]interface{}{
		"rfmo":          "WCPFC",
		"document_type": "meeting_decisions",
		"title":         "Summary of outcomes",
	}, "Outcomes of the twentieth regular session.", "raw.pdf")
	writeArtifact(t, fs, "/rfmo/wcpfc/2026/doc-4/v1", map[string]interface{}{
		"rfmo":          "WCPFC",
		"document_type": "other",
		"title":         "VMS standards update",
	}, "Updated vms polling requirements for carriers.", "raw.pdf")
	writeArtifact(t, fs, "/rfmo/wcpfc/2026/doc-5/v1", map[string]interface{}{
		"rfmo":          "WCPFC",
		"document_type": "conservation_management_measures",
		"title":         "CMM 2026-01",
	}, "Text of the measure.", "raw.pdf")

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	byTitle := map[string]Alert{}
	for _, a := range alerts {
		byTitle[a.Title] = a
	}
	assert.Equal(t, TypeMeetingDecision, byTitle["Summary of outcomes"].AlertType)
	assert.Equal(t, TypeComplianceChange, byTitle["VMS standards update"].AlertType)
	assert.Equal(t, TypeNewMeasure, byTitle["CMM 2026-01"].AlertType)
	assert.Equal(t, SeverityMedium, byTitle["CMM 2026-01"].Severity)
}

func TestGenerateDropsUnclassifiable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "/rfmo/iccat/2026/doc-6/v1", map[string]interface{}{
		"rfmo":          "ICCAT",
		"document_type": "other",
		"title":         "Library catalogue",
	}, "An index of archived publications.", "raw.bin")

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestGenerateDaysFilter(t *testing.T) {
	fs := afero.NewMemMapFs()
	old := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	recent := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	writeArtifact(t, fs, "/rfmo/iccat/2026/doc-old/v1", map[string]interface{}{
		"rfmo":           "ICCAT",
		"document_type":  "circular_letters",
		"title":          "Old circular",
		"published_date": old,
	}, "", "raw.pdf")
	writeArtifact(t, fs, "/rfmo/iccat/2026/doc-new/v1", map[string]interface{}{
		"rfmo":           "ICCAT",
		"document_type":  "circular_letters",
		"title":          "New circular",
		"published_date": recent,
	}, "", "raw.pdf")

	filtered, err := NewWithFs(fs, "/rfmo", nil).Generate(7)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "New circular", filtered[0].Title)

	all, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGenerateSortsByPublishedDateDescending(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeArtifact(t, fs, "/rfmo/iccat/2024/a/v1", map[string]interface{}{
		"rfmo":           "ICCAT",
		"document_type":  "circular_letters",
		"title":          "Earlier",
		"published_date": "2024-01-01",
	}, "", "raw.pdf")
	writeArtifact(t, fs, "/rfmo/iccat/2024/b/v1", map[string]interface{}{
		"rfmo":           "ICCAT",
		"document_type":  "circular_letters",
		"title":          "Later",
		"published_date": "2024-12-01",
	}, "", "raw.pdf")
	writeArtifact(t, fs, "/rfmo/iccat/2024/c/v1", map[string]interface{}{
		"rfmo":          "ICCAT",
		"document_type": "circular_letters",
		"title":         "Undated",
	}, "", "raw.pdf")

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, "Later", alerts[0].Title)
	assert.Equal(t, "Earlier", alerts[1].Title)
	assert.Equal(t, "Undated", alerts[2].Title)
}

func TestGenerateSkipsMalformedMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/rfmo/iccat/2026/bad/v1", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/rfmo/iccat/2026/bad/v1/metadata.json", []byte("{not json"), 0o644))

	alerts, err := NewWithFs(fs, "/rfmo", nil).Generate(0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestGenerateMissingRootIsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	alerts, err := NewWithFs(fs, "/nope", nil).Generate(0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestExtractDueDateISOPassThrough(t *testing.T) {
	due := extractDueDate("Reports due date 2026-04-01", "")
	require.NotNil(t, due)
	assert.Equal(t, "2026-04-01", *due)

	assert.Nil(t, extractDueDate("No deadline mentioned", "just text"))

	// Calendar-impossible DD/MM dates yield no due date rather than a
	// normalized rollover.
	assert.Nil(t, extractDueDate("Reports due by 31/02/2026", ""))
	assert.Nil(t, extractDueDate("Reports due by 31/04/2026", ""))
}
