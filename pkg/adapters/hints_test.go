package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "CMM 2024-01 Tuna measure",
		CleanText("  <b>CMM 2024-01</b>\n  Tuna   measure "))
	assert.Equal(t, "Quota & allocation", CleanText("Quota &amp; allocation"))
	assert.Equal(t, "", CleanText("  <br/>  "))
}

func TestTitleHint(t *testing.T) {
	assert.Equal(t, "Resolution 24/02",
		TitleHint("<span>Resolution 24/02</span>", "https://example.org/x"))

	// Empty anchors fall back to the URL tail with separators spaced out.
	assert.Equal(t, "cmm 2023 01.pdf",
		TitleHint("", "https://example.org/docs/cmm-2023-01.pdf"))

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, TitleHint(string(long), "https://example.org/x"), 240)
}

func TestExtractDate(t *testing.T) {
	iso := ExtractDate("adopted on 2024-06-01 by the commission")
	require.NotNil(t, iso)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), iso.UTC())

	dmy := ExtractDate("published 12/03/2026")
	require.NotNil(t, dmy)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), dmy.UTC())

	month := ExtractDate("entered into force 5 march 2024")
	require.NotNil(t, month)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), month.UTC())

	assert.Nil(t, ExtractDate("no dates here"))
}

func TestExtractDateOrderOfPreference(t *testing.T) {
	// ISO wins over DD/MM/YYYY when both appear.
	got := ExtractDate("2024-06-01 superseding 12/03/2023")
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())
}

func TestDocumentNumber(t *testing.T) {
	assert.Equal(t, "CMM 2024-03", DocumentNumber("CMM 2024-03 on tropical tuna"))
	assert.Equal(t, "Resolution 2023/12", DocumentNumber("see Resolution 2023/12 adopted"))
	assert.Equal(t, "", DocumentNumber("annual report"))
}

func TestMeetingReference(t *testing.T) {
	assert.Equal(t, "WCPFC 20", MeetingReference("adopted at WCPFC 20 in 2023"))
	assert.Equal(t, "IOTC-2024", MeetingReference("IOTC-2024 session outcomes"))
	assert.Equal(t, "", MeetingReference("no meeting named"))
}

func TestRegionFor(t *testing.T) {
	assert.Equal(t, "Atlantic Ocean", RegionFor("ICCAT"))
	assert.Equal(t, "Indian Ocean", RegionFor("iotc"))
	assert.Equal(t, "NAFO", RegionFor("NAFO"))
}
