package parse

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are subtrees whose text is site chrome, not document
// content. Dropping them keeps the content hash insensitive to navigation
// and footer churn.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
}

// visibleHTMLText returns the visible text of an HTML page with chrome
// subtrees removed.
func visibleHTMLText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}
