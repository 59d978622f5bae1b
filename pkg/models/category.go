package models

// DocumentCategory classifies an RFMO regulatory artifact. Adapters declare
// which index pages map to which category; the alert generator keys several
// of its rules on it.
type DocumentCategory string

const (
	CategoryConservationManagementMeasures DocumentCategory = "conservation_management_measures"
	CategoryRecommendationsResolutions     DocumentCategory = "recommendations_resolutions"
	CategoryCircularLetters                DocumentCategory = "circular_letters"
	CategoryIUUVesselLists                 DocumentCategory = "iuu_vessel_lists"
	CategoryQuotaAllocationTables          DocumentCategory = "quota_allocation_tables"
	CategoryMeetingDecisions               DocumentCategory = "meeting_decisions"
	CategoryOther                          DocumentCategory = "other"
)

// MeasureCategories are the categories that represent binding or
// quasi-binding measures. A document in one of these produces a
// NEW_MEASURE_PUBLISHED alert when no higher-priority rule matches.
func MeasureCategories() []DocumentCategory {
	return []DocumentCategory{
		CategoryConservationManagementMeasures,
		CategoryRecommendationsResolutions,
		CategoryCircularLetters,
		CategoryIUUVesselLists,
		CategoryQuotaAllocationTables,
	}
}

// ProcessingStatus tracks where a document sits in the ingestion lifecycle.
type ProcessingStatus string

const (
	StatusDiscovered ProcessingStatus = "discovered"
	StatusIngested   ProcessingStatus = "ingested"
	StatusFailed     ProcessingStatus = "failed"
	StatusSkipped    ProcessingStatus = "skipped"
)

// IngestReason records why the change detector decided to write a new version.
type IngestReason string

const (
	ReasonNewURL             IngestReason = "new_url"
	ReasonFileHashChanged    IngestReason = "file_hash_changed"
	ReasonPageContentChanged IngestReason = "page_content_changed"
	ReasonMetadataChanged    IngestReason = "metadata_changed"
)
