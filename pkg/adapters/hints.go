package adapters

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const maxTitleLength = 240

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	isoDateRe = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	dmyDateRe = regexp.MustCompile(`\b([0-3]?\d)/([0-1]?\d)/(20\d{2})\b`)
	monthRe   = regexp.MustCompile(
		`(?i)\b([0-3]?\d)\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(20\d{2})\b`,
	)

	documentNumberRe = regexp.MustCompile(
		`(?:CMM|REC|RES|Recommendation|Resolution)[-: ]?(\d{4}[-/]\d{1,3})`,
	)
	meetingReferenceRe = regexp.MustCompile(
		`(COM|WCPFC|IOTC)[-_ ]?(\d{1,2}|\d{4})\b`,
	)
)

// rfmoRegions maps organization codes to their ocean regions. Unknown codes
// fall back to the code itself.
var rfmoRegions = map[string]string{
	"ICCAT": "Atlantic Ocean",
	"WCPFC": "Western and Central Pacific Ocean",
	"IOTC":  "Indian Ocean",
}

// RegionFor returns the ocean region for an RFMO code.
func RegionFor(rfmo string) string {
	if region, ok := rfmoRegions[strings.ToUpper(rfmo)]; ok {
		return region
	}
	return rfmo
}

// CleanText strips HTML tags, collapses whitespace, and decodes entities.
func CleanText(value string) string {
	stripped := tagRe.ReplaceAllString(value, " ")
	collapsed := whitespaceRe.ReplaceAllString(stripped, " ")
	return html.UnescapeString(strings.TrimSpace(collapsed))
}

// TitleHint derives the title hint for a candidate: the cleaned anchor text
// truncated to 240 characters, or the URL tail when the anchor is empty.
func TitleHint(anchorText, absURL string) string {
	title := CleanText(anchorText)
	if title == "" {
		title = titleFromURL(absURL)
	}
	return truncate(title, maxTitleLength)
}

func titleFromURL(absURL string) string {
	tail := strings.TrimRight(absURL, "/")
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	tail = regexp.MustCompile(`[-_]+`).ReplaceAllString(tail, " ")
	return tail
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ExtractDate finds the first date in text, trying patterns in order:
// ISO YYYY-MM-DD, DD/MM/YYYY, then DD MonthName YYYY. As a last resort the
// whole text is handed to dateparse, which covers the long tail of formats
// RFMO webmasters produce.
func ExtractDate(text string) *time.Time {
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return &t
		}
	}
	if m := dmyDateRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("2/1/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			return &t
		}
	}
	if m := monthRe.FindStringSubmatch(text); m != nil {
		month := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:])
		if t, err := time.Parse("2 January 2006", m[1]+" "+month+" "+m[3]); err == nil {
			return &t
		}
	}
	if t, err := dateparse.ParseAny(strings.TrimSpace(text)); err == nil && t.Year() >= 2000 {
		t = t.UTC()
		return &t
	}
	return nil
}

// DocumentNumber finds the first policy document number in text.
func DocumentNumber(text string) string {
	if m := documentNumberRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[0])
	}
	return ""
}

// MeetingReference finds the first meeting reference in text.
func MeetingReference(text string) string {
	if m := meetingReferenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[0])
	}
	return ""
}
