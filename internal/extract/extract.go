// Package extract turns detail pages into structured job records. Each known
// page layout gets its own parser; parsers run in fixed priority order and
// a page that no parser can fully read is skipped, never half-emitted.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/harvest"
	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/types"
)

// ErrParseIncomplete reports that a detail page was fetched but no parser
// could recover both a title and a description from it.
var ErrParseIncomplete = errors.New("no parser produced a complete record")

// Error wraps a failure to extract a record from one detail page.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Extractor fetches detail pages and parses them into job records.
type Extractor struct {
	client  *fetch.Client
	parsers []variantParser
	verbose bool
}

// NewExtractor builds an extractor over the shared fetch client with the
// default parser order.
func NewExtractor(client *fetch.Client, verbose bool) *Extractor {
	return &Extractor{
		client:  client,
		parsers: defaultParsers(),
		verbose: verbose,
	}
}

// Extract fetches one detail page and produces a job record attributed to
// site. The listing card title, when present, backfills a missing page
// title but never overrides one the page itself carries.
func (x *Extractor) Extract(ctx context.Context, detail harvest.Detail, site string) (*types.JobRecord, error) {
	result, err := x.client.Fetch(ctx, detail.Link.URL)
	if err != nil {
		return nil, &Error{URL: detail.Link.URL, Message: "fetching detail page", Cause: err}
	}

	record, err := x.Parse(result.Body, detail, site)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Parse extracts a record from an already-fetched page body. Split from
// Extract so feed entries and pre-fetched pages share the same path.
func (x *Extractor) Parse(body string, detail harvest.Detail, site string) (*types.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &Error{URL: detail.Link.URL, Message: "parsing detail page", Cause: err}
	}
	StripNoise(doc)

	fields, parserName := x.attempt(doc)
	if fields == nil {
		// Card title alone cannot rescue a page with no readable body.
		return nil, &Error{URL: detail.Link.URL, Message: "parse incomplete", Cause: ErrParseIncomplete}
	}

	if fields.Title == "" {
		fields.Title = detail.CardTitle
	}
	if fields.Title == "" {
		return nil, &Error{URL: detail.Link.URL, Message: "parse incomplete", Cause: ErrParseIncomplete}
	}

	if x.verbose {
		log.Printf("[VERBOSE] extracted %q from %s via %s parser", fields.Title, detail.Link.URL, parserName)
	}

	record := &types.JobRecord{
		JobTitle:       fields.Title,
		JobDescription: fields.Description,
		ApplicationURL: x.applicationURL(fields.ApplyHref, detail.Link.URL),
		Metadata:       map[string]any{},
		SourceSite:     site,
		SourceURL:      detail.Link.URL,
		ExtractedAt:    time.Now().UTC(),
	}
	for key, value := range fields.Metadata {
		record.Metadata[key] = value
	}
	return record, nil
}

// attempt runs the parsers in priority order and returns the first complete
// result, along with the winning parser's name.
func (x *Extractor) attempt(doc *goquery.Document) (*pageFields, string) {
	for _, parser := range x.parsers {
		if fields, ok := parser.Attempt(doc); ok {
			return fields, parser.Name()
		}
	}
	return nil, ""
}

// applicationURL resolves the apply link against the detail page and
// normalizes it. The detail page URL is the fallback when the page carries
// no apply link, so every record has a usable application target.
func (x *Extractor) applicationURL(href, pageURL string) string {
	if href == "" {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	resolved, err := links.Resolve(base, href)
	if err != nil {
		return pageURL
	}
	normalized, err := links.Normalize(resolved)
	if err != nil {
		return pageURL
	}
	return normalized
}
