package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	docxParagraphRe = regexp.MustCompile(`</w:p>`)
	docxTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// extractDOCXText reads word/document.xml from the DOCX archive and strips
// the WordprocessingML markup, keeping paragraph breaks as newlines.
func extractDOCXText(body []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("docx read: %w", err)
		}
		defer rc.Close()

		xmlData, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("docx read: %w", err)
		}

		text := docxParagraphRe.ReplaceAllString(string(xmlData), "\n")
		text = docxTagRe.ReplaceAllString(text, " ")
		return strings.TrimSpace(text), nil
	}

	return "", fmt.Errorf("docx: word/document.xml not found")
}
