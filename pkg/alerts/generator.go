// Package alerts derives actionable alerts from the persisted artifact
// corpus. The generator is a read-only consumer of the artifact store: it
// walks every metadata.json sidecar, loads the sibling extracted text, and
// classifies each document into at most one alert.
package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// Alert severities and types.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"

	TypeReportingDeadline = "REPORTING_DEADLINE"
	TypeQuotaOrAllocation = "QUOTA_OR_ALLOCATION_NOTICE"
	TypeMeetingDecision   = "MEETING_DECISION_OR_PROCESS_UPDATE"
	TypeComplianceChange  = "COMPLIANCE_SYSTEM_CHANGE"
	TypeNewMeasure        = "NEW_MEASURE_PUBLISHED"
)

// Alert is one actionable item derived from a persisted document version.
type Alert struct {
	RFMO              string  `json:"rfmo"`
	AlertType         string  `json:"alert_type"`
	Severity          string  `json:"severity"`
	DocumentType      string  `json:"document_type"`
	Title             string  `json:"title"`
	DocumentNumber    string  `json:"document_number,omitempty"`
	PublishedDate     *string `json:"published_date"`
	DueDate           *string `json:"due_date"`
	WhatChanged       string  `json:"what_changed"`
	ActionRequired    string  `json:"action_required"`
	SourceURL         string  `json:"source_url"`
	StoredPath        *string `json:"stored_path"`
	ExtractedTextPath string  `json:"extracted_text_path"`
}

var deadlineRe = regexp.MustCompile(
	`(?i)\b(?:deadline|due(?:\s+date)?|submit(?:\s+\w+){0,4}\s+by)\D{0,16}([0-3]?\d/[0-1]?\d/20\d{2}|20\d{2}-\d{2}-\d{2})\b`,
)

var (
	quotaTerms      = []string{"quota", "allocated catch limits", "allocation", "catch limit", "tac"}
	meetingTerms    = []string{"meeting", "session", "intersessional", "review of cmm"}
	complianceTerms = []string{"dfad register", "vms", "observer", "transshipment", "compliance monitoring", "labour standards"}

	measureTypes = map[string]bool{
		"conservation_management_measures": true,
		"recommendations_resolutions":      true,
		"circular_letters":                 true,
		"iuu_vessel_lists":                 true,
		"quota_allocation_tables":          true,
	}
)

// Generator walks the artifact root and classifies documents into alerts.
type Generator struct {
	fs   afero.Fs
	root string
	log  hclog.Logger
}

// New creates a generator over the OS filesystem.
func New(root string, log hclog.Logger) *Generator {
	return NewWithFs(afero.NewOsFs(), root, log)
}

// NewWithFs creates a generator over an explicit filesystem.
func NewWithFs(fs afero.Fs, root string, log hclog.Logger) *Generator {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Generator{fs: fs, root: root, log: log.Named("alerts")}
}

// Generate classifies every persisted document into at most one alert.
// When days > 0, documents whose published_date predates the window are
// excluded; days == 0 disables the filter. Results are sorted by
// published_date descending with unknown dates last.
func (g *Generator) Generate(days int) ([]Alert, error) {
	metaPaths, err := g.findMetadataFiles()
	if err != nil {
		return nil, fmt.Errorf("walking artifact root %s: %w", g.root, err)
	}

	var since *time.Time
	if days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		since = &cutoff
	}

	alerts := []Alert{}
	for _, metaPath := range metaPaths {
		metadata := g.loadMetadata(metaPath)
		if metadata == nil {
			continue
		}

		published := parseISODate(stringField(metadata, "published_date"))
		if since != nil && published != nil && published.Before(*since) {
			continue
		}

		dir := filepath.Dir(metaPath)
		extractedPath := filepath.Join(dir, "extracted.txt")
		extractedText := ""
		if body, err := afero.ReadFile(g.fs, extractedPath); err == nil {
			extractedText = string(body)
		}

		if alert := g.classify(metadata, extractedText, extractedPath, dir); alert != nil {
			alerts = append(alerts, *alert)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return dateKey(alerts[i].PublishedDate) > dateKey(alerts[j].PublishedDate)
	})
	return alerts, nil
}

func dateKey(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

// classify applies the alert rules in priority order. A nil return drops
// the document.
func (g *Generator) classify(metadata map[string]interface{}, extractedText, extractedPath, artifactDir string) *Alert {
	title := strings.TrimSpace(stringField(metadata, "title"))
	lowered := strings.ToLower(title + "\n" + extractedText)
	docType := stringField(metadata, "document_type")
	if docType == "" {
		docType = "other"
	}

	dueDate := extractDueDate(title, extractedText)

	var alertType, severity string
	switch {
	case dueDate != nil ||
		strings.Contains(lowered, "mandatory reporting") ||
		(strings.Contains(lowered, "reporting") && strings.Contains(lowered, "deadline")):
		alertType, severity = TypeReportingDeadline, SeverityHigh
	case containsAny(lowered, quotaTerms):
		alertType, severity = TypeQuotaOrAllocation, SeverityHigh
	case docType == "meeting_decisions" || containsAny(lowered, meetingTerms):
		alertType, severity = TypeMeetingDecision, SeverityMedium
	case containsAny(lowered, complianceTerms):
		alertType, severity = TypeComplianceChange, SeverityMedium
	case measureTypes[docType]:
		alertType, severity = TypeNewMeasure, SeverityMedium
	default:
		return nil
	}

	return &Alert{
		RFMO:              stringField(metadata, "rfmo"),
		AlertType:         alertType,
		Severity:          severity,
		DocumentType:      docType,
		Title:             title,
		DocumentNumber:    stringField(metadata, "document_number"),
		PublishedDate:     optionalString(metadata, "published_date"),
		DueDate:           dueDate,
		WhatChanged:       whatChanged(alertType, title, stringField(metadata, "document_number"), dueDate),
		ActionRequired:    actionRequired(alertType, dueDate),
		SourceURL:         stringField(metadata, "source_url"),
		StoredPath:        g.rawPathFor(artifactDir),
		ExtractedTextPath: extractedPath,
	}
}

func whatChanged(alertType, title, documentNumber string, dueDate *string) string {
	switch alertType {
	case TypeReportingDeadline:
		deadline := ""
		if dueDate != nil {
			deadline = fmt.Sprintf(" Deadline: %s.", *dueDate)
		}
		return strings.TrimSpace(fmt.Sprintf("Reporting obligation update detected in '%s'.%s", title, deadline))
	case TypeQuotaOrAllocation:
		return fmt.Sprintf("Quota/allocation update detected in '%s'.", title)
	case TypeComplianceChange:
		return fmt.Sprintf("Compliance process/system update detected in '%s'.", title)
	case TypeMeetingDecision:
		return fmt.Sprintf("Meeting decision/process update detected in '%s'.", title)
	}
	num := ""
	if documentNumber != "" {
		num = fmt.Sprintf(" (%s)", documentNumber)
	}
	return fmt.Sprintf("New or revised RFMO measure detected%s: '%s'.", num, title)
}

func actionRequired(alertType string, dueDate *string) string {
	switch alertType {
	case TypeReportingDeadline:
		if dueDate != nil {
			return fmt.Sprintf("Assign owner and submit required reporting package before %s.", *dueDate)
		}
		return "Assign owner, confirm reporting scope, and submit required reporting package by deadline."
	case TypeQuotaOrAllocation:
		return "Update national allocation tables and notify fleet operators of updated catch limits."
	case TypeComplianceChange:
		return "Update compliance SOPs and onboard operations/monitoring teams to the new requirement."
	case TypeMeetingDecision:
		return "Prepare policy brief and track follow-on amendments or implementation decisions."
	}
	return "Review legal text, map impacted fleets/species/areas, and issue implementation guidance."
}

// extractDueDate finds a deadline date near deadline phrasing in the title
// or body. DD/MM/YYYY dates are normalized to ISO.
func extractDueDate(title, body string) *string {
	m := deadlineRe.FindStringSubmatch(title + "\n" + body)
	if m == nil {
		return nil
	}
	raw := m[1]
	if !strings.Contains(raw, "/") {
		return &raw
	}
	parts := strings.Split(raw, "/")
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return nil
	}
	iso := t.Format("2006-01-02")
	return &iso
}

func (g *Generator) findMetadataFiles() ([]string, error) {
	if ok, err := afero.DirExists(g.fs, g.root); err != nil || !ok {
		return nil, err
	}

	var paths []string
	err := afero.Walk(g.fs, g.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == "metadata.json" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (g *Generator) loadMetadata(path string) map[string]interface{} {
	body, err := afero.ReadFile(g.fs, path)
	if err != nil {
		g.log.Warn("unreadable metadata file", "path", path, "error", err)
		return nil
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(body, &metadata); err != nil {
		g.log.Warn("malformed metadata file", "path", path, "error", err)
		return nil
	}
	return metadata
}

// rawPathFor returns the first raw artifact present in a version dir.
func (g *Generator) rawPathFor(artifactDir string) *string {
	for _, ext := range []string{".pdf", ".html", ".docx", ".bin"} {
		candidate := filepath.Join(artifactDir, "raw"+ext)
		if ok, _ := afero.Exists(g.fs, candidate); ok {
			return &candidate
		}
	}
	return nil
}

func stringField(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func optionalString(metadata map[string]interface{}, key string) *string {
	if v, ok := metadata[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func parseISODate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
