package adapters

import (
	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// NewICCAT builds the adapter for the International Commission for the
// Conservation of Atlantic Tunas.
func NewICCAT(opts RegistryOptions) *HTMLAdapter {
	return NewHTMLAdapter("iccat", "ICCAT", map[models.DocumentCategory][]string{
		models.CategoryRecommendationsResolutions: {
			"https://www.iccat.int/en/RecsRegs.html",
		},
		models.CategoryCircularLetters: {
			"https://www.iccat.int/en/Circulars.html",
		},
		models.CategoryIUUVesselLists: {
			"https://www.iccat.int/en/IUUlist.html",
		},
		models.CategoryMeetingDecisions: {
			"https://www.iccat.int/en/meetingscurrent.html",
		},
	}, opts)
}

// NewWCPFC builds the adapter for the Western and Central Pacific Fisheries
// Commission.
func NewWCPFC(opts RegistryOptions) *HTMLAdapter {
	return NewHTMLAdapter("wcpfc", "WCPFC", map[models.DocumentCategory][]string{
		models.CategoryConservationManagementMeasures: {
			"https://www.wcpfc.int/conservation-and-management-measures",
		},
		models.CategoryIUUVesselLists: {
			"https://www.wcpfc.int/wcpfc-iuu-vessel-list",
		},
		models.CategoryMeetingDecisions: {
			"https://www.wcpfc.int/meetings",
		},
	}, opts)
}

// NewIOTC builds the adapter for the Indian Ocean Tuna Commission.
func NewIOTC(opts RegistryOptions) *HTMLAdapter {
	return NewHTMLAdapter("iotc", "IOTC", map[models.DocumentCategory][]string{
		models.CategoryRecommendationsResolutions: {
			"https://iotc.org/cmms",
		},
		models.CategoryCircularLetters: {
			"https://iotc.org/documents/circulars",
		},
		models.CategoryIUUVesselLists: {
			"https://iotc.org/vessels/iuu",
		},
		models.CategoryQuotaAllocationTables: {
			"https://iotc.org/documents/allocation",
		},
	}, opts)
}

// GenericSourceConfig describes a single-listing RFMO site covered by the
// base adapter with category "other".
type GenericSourceConfig struct {
	Name       string
	RFMO       string
	ListingURL string
}

// GenericSources lists the remaining RFMO sites the pipeline watches. These
// organizations publish fewer documents and a single listing page suffices.
func GenericSources() []GenericSourceConfig {
	return []GenericSourceConfig{
		{"ccamlr", "CCAMLR", "https://www.ccamlr.org/en/document/publications"},
		{"ccsbt", "CCSBT", "https://www.ccsbt.org/en/content/operational-resolutions"},
		{"gfcm", "GFCM", "https://www.fao.org/gfcm/decisions/en/"},
		{"iattc", "IATTC", "https://www.iattc.org/en-US/Management/Resolutions"},
		{"nafo", "NAFO", "https://www.nafo.int/Fisheries/Conservation"},
		{"neafc", "NEAFC", "https://www.neafc.org/managing_fisheries/measures"},
		{"npfc", "NPFC", "https://www.npfc.int/conservation-and-management-measure"},
		{"seafo", "SEAFO", "https://www.seafo.org/Management/Conservation-Measures"},
		{"siofa", "SIOFA", "https://siofa.org/management/cmms"},
		{"sprfmo", "SPRFMO", "https://www.sprfmo.int/measures/"},
	}
}

// NewGeneric builds an adapter for a single-listing source.
func NewGeneric(cfg GenericSourceConfig, opts RegistryOptions) *HTMLAdapter {
	return NewHTMLAdapter(cfg.Name, cfg.RFMO, map[models.DocumentCategory][]string{
		models.CategoryOther: {cfg.ListingURL},
	}, opts)
}
