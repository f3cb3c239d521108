package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors is the denylist of wrapper markup stripped before field
// extraction. A fixed denylist, not a free-form heuristic, so legitimate
// content is never dropped by accident.
var noiseSelectors = strings.Join([]string{
	"nav",
	"footer",
	"header",
	"script",
	"style",
	"noscript",
	"form",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
	".social-share",
	".share-buttons",
	".sidebar",
	".breadcrumb",
	".skip-link",
}, ", ")

var blankLines = regexp.MustCompile(`\n{3,}`)
var innerSpace = regexp.MustCompile(`[ \t]+`)

// StripNoise removes denylisted wrapper elements from a parsed document,
// in place.
func StripNoise(doc *goquery.Document) {
	doc.Find(noiseSelectors).Remove()
}

// CleanText normalizes whitespace in extracted text: trimmed lines, single
// internal spaces, at most one blank line between paragraphs.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(innerSpace.ReplaceAllString(line, " "))
		cleaned = append(cleaned, line)
	}

	result := strings.Join(cleaned, "\n")
	result = blankLines.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// selectionText extracts cleaned text from the first match of any selector,
// tried in order.
func selectionText(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			if text := CleanText(sel.First().Text()); text != "" {
				return text
			}
		}
	}
	return ""
}
