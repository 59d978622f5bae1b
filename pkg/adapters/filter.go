package adapters

import (
	"regexp"
	"strings"
)

// The candidate filter is the precision-critical predicate that decides
// whether a link on an index page is a policy document worth ingesting.
// Signals are matched on the lowercased concatenation of URL, anchor text,
// and context window; only the policy identifier is matched against the
// original-case text so organization acronym suffixes like "WG-2023" keep
// their case class.

// excludeTerms veto a candidate outright, regardless of any other signal.
var excludeTerms = []string{
	"news", "press", "newsletter", "manual", "guide", "brochure",
	"training", "faq", "photo", "gallery", "video", "event", "workshop",
	"vacancy", "procurement", "tender", "media", "twitter", "facebook",
}

// policyTerms indicate regulatory subject matter.
var policyTerms = []string{
	"conservation and management measure", "management measure",
	"recommendation", "resolution", "circular", "iuu", "quota",
	"allocation", "catch limit", "closure", "closed area", "prohibited",
	"ban", "meeting", "decision",
}

// complianceTerms indicate binding language.
var complianceTerms = []string{
	"shall", "must", "required", "deadline", "reporting", "obligation",
	"compliance", "entry into force", "effective", "implementation",
}

// actionableExtensions are file suffixes that usually denote a real document
// rather than a navigation page.
var actionableExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".htm", ".html",
}

var policyIdentifierRe = regexp.MustCompile(
	`(?:CMM|REC|RES|Recommendation|Resolution|Circular)[-: ]?(?:\d{4}[-/]\d{1,3}|[A-Z]{1,4}-\d{2,4})`,
)

// IsDocumentCandidate applies the document-candidate filter to an absolute
// URL, its anchor text, and the surrounding context window.
func IsDocumentCandidate(absURL, anchorText, contextWindow string) bool {
	lowerURL := strings.ToLower(absURL)
	if strings.HasPrefix(lowerURL, "mailto:") || strings.HasPrefix(lowerURL, "javascript:") {
		return false
	}

	signal := strings.ToLower(absURL + " " + anchorText + " " + contextWindow)
	for _, term := range excludeTerms {
		if strings.Contains(signal, term) {
			return false
		}
	}

	hasIdentifier := policyIdentifierRe.MatchString(anchorText + " " + contextWindow)
	hasPolicyTerm := containsAny(signal, policyTerms)
	hasComplianceTerm := containsAny(signal, complianceTerms)
	hasExtension := hasActionableExtension(lowerURL)

	if hasIdentifier && (hasExtension || hasPolicyTerm) {
		return true
	}
	return hasPolicyTerm && hasComplianceTerm && hasExtension
}

func hasActionableExtension(lowerURL string) bool {
	for _, ext := range actionableExtensions {
		if strings.HasSuffix(lowerURL, ext) {
			return true
		}
	}
	return strings.Contains(lowerURL, "measure/") || strings.Contains(lowerURL, "document/")
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
