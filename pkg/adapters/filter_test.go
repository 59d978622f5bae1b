package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDocumentCandidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		text    string
		context string
		want    bool
	}{
		{
			name:    "press release rejected",
			url:     "https://example.org/news/press-release",
			text:    "Press release on workshop",
			context: "media update event",
			want:    false,
		},
		{
			name:    "measure pdf with identifier accepted",
			url:     "https://example.org/docs/CMM-2024-03.pdf",
			text:    "CMM 2024-03 Tropical tuna measure",
			context: "shall enter into force on 2024-06-01",
			want:    true,
		},
		{
			name:    "mailto rejected",
			url:     "mailto:secretariat@example.org",
			text:    "Recommendation 24-01",
			context: "",
			want:    false,
		},
		{
			name:    "javascript rejected",
			url:     "javascript:void(0)",
			text:    "Resolution 2024/05",
			context: "",
			want:    false,
		},
		{
			name:    "identifier with policy term but no extension accepted",
			url:     "https://example.org/measure/cmm-2023-01",
			text:    "CMM 2023-01 Conservation and management measure",
			context: "",
			want:    true,
		},
		{
			name:    "policy and compliance terms with extension accepted",
			url:     "https://example.org/files/iuu-list.pdf",
			text:    "IUU vessel list",
			context: "compliance monitoring of the vessel register",
			want:    true,
		},
		{
			name:    "policy term without identifier or compliance rejected",
			url:     "https://example.org/about/overview.html",
			text:    "About our conservation work",
			context: "general information",
			want:    false,
		},
		{
			name:    "newsletter excluded even with identifier",
			url:     "https://example.org/newsletter/rec-2024-01.pdf",
			text:    "REC 2024-01 summary",
			context: "monthly newsletter",
			want:    false,
		},
		{
			name:    "identifier without extension or policy term rejected",
			url:     "https://example.org/page",
			text:    "REC 2024-01",
			context: "see attachment",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsDocumentCandidate(tt.url, tt.text, tt.context)
			assert.Equal(t, tt.want, got)
		})
	}
}
