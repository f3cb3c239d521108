package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageFields holds the raw field values a variant parser pulled out of a
// detail page, before normalization into a JobRecord.
type pageFields struct {
	Title       string
	Description string
	ApplyHref   string
	Metadata    map[string]string
}

// variantParser attempts extraction against one known page layout. Attempt
// reports false when the layout does not match; parsers must not guess.
type variantParser interface {
	Name() string
	Attempt(doc *goquery.Document) (*pageFields, bool)
}

// defaultParsers are evaluated in fixed priority order: most specific
// layout first, so the same page always resolves to the same parser.
func defaultParsers() []variantParser {
	return []variantParser{
		portalParser{},
		sectionedParser{},
		articleParser{},
	}
}

const minDescriptionLength = 40

// portalParser matches the standard hosted career-portal detail layout,
// where the posting body carries job-specific class names.
type portalParser struct{}

func (portalParser) Name() string { return "portal" }

func (portalParser) Attempt(doc *goquery.Document) (*pageFields, bool) {
	title := selectionText(doc,
		"h1.jobTitle", ".job-title h1", "h1.job-title", ".jobDetailTitle",
	)
	description := selectionText(doc,
		".jobDescription", ".job-description", "#jobDescription", ".jobDetailDescription",
	)
	if title == "" || len(description) < minDescriptionLength {
		return nil, false
	}

	fields := &pageFields{
		Title:       title,
		Description: description,
		ApplyHref:   applyHref(doc),
		Metadata:    map[string]string{},
	}
	collectMetadata(doc, fields.Metadata)
	return fields, true
}

// sectionedParser matches layouts that label posting fields with generic
// job-board classes rather than portal-specific ones.
type sectionedParser struct{}

func (sectionedParser) Name() string { return "sectioned" }

func (sectionedParser) Attempt(doc *goquery.Document) (*pageFields, bool) {
	title := selectionText(doc,
		".job-header h1", ".posting-title", "h1[itemprop='title']", ".position-title",
	)
	description := selectionText(doc,
		"[itemprop='description']", ".posting-description", ".job-details", ".position-description",
	)
	if title == "" || len(description) < minDescriptionLength {
		return nil, false
	}

	fields := &pageFields{
		Title:       title,
		Description: description,
		ApplyHref:   applyHref(doc),
		Metadata:    map[string]string{},
	}
	collectMetadata(doc, fields.Metadata)
	return fields, true
}

// articleParser is the last-resort layout: a single h1 and the main content
// region. It tolerates a missing h1 because the caller can backfill the
// title from the listing card, but a page without a readable body is
// rejected outright.
type articleParser struct{}

func (articleParser) Name() string { return "article" }

func (articleParser) Attempt(doc *goquery.Document) (*pageFields, bool) {
	title := selectionText(doc, "h1")
	description := selectionText(doc, "main", "article", "#content", ".content")
	if len(description) < minDescriptionLength {
		return nil, false
	}

	fields := &pageFields{
		Title:       title,
		Description: description,
		ApplyHref:   applyHref(doc),
		Metadata:    map[string]string{},
	}
	collectMetadata(doc, fields.Metadata)
	return fields, true
}

// applyHref finds the application link, preferring explicit apply actions
// over arbitrary anchors.
func applyHref(doc *goquery.Document) string {
	selectors := []string{
		"a.applyButton", "a.apply-button", "a#applyButton",
		"a[href*='ApplicationMethods']", "a[href*='apply']",
	}
	for _, selector := range selectors {
		href, ok := doc.Find(selector).First().Attr("href")
		if ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	return ""
}

// metadataFields maps optional posting attributes to the selectors that
// carry them across known layouts.
var metadataFields = map[string][]string{
	"location":   {".jobLocation", ".job-location", "[itemprop='jobLocation']", ".posting-location"},
	"department": {".jobDepartment", ".job-department", ".posting-category", "[itemprop='department']"},
	"postedDate": {".jobDate", ".posting-date", "[itemprop='datePosted']", "time[datetime]"},
	"jobId":      {".jobId", ".job-id", ".posting-id"},
}

func collectMetadata(doc *goquery.Document, into map[string]string) {
	for field, selectors := range metadataFields {
		if value := selectionText(doc, selectors...); value != "" {
			into[field] = value
		}
	}
}
