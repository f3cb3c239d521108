package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/types"
)

// DefaultMaxPages bounds pagination followed per listing page.
const DefaultMaxPages = 5

// DefaultMaxPerListing caps detail links taken from one listing so a runaway
// search view cannot dominate a run.
const DefaultMaxPerListing = 100

// searchJobsBatchSize is the page size requested from the SearchJobs API.
const searchJobsBatchSize = 50

// Detail is a job-detail link found on a listing page, with the anchor/card
// text kept as a title fallback for detail pages that fail to expose one.
type Detail struct {
	Link      types.Link
	CardTitle string
}

// Expander discovers the individual job-detail URLs nested in listing-style
// pages, following pagination up to a configured ceiling.
type Expander struct {
	client        *fetch.Client
	maxPages      int
	maxPerListing int
	useBrowser    bool
	verbose       bool
}

// NewExpander creates a listing expander over the shared fetch client.
func NewExpander(client *fetch.Client, maxPages int, useBrowser, verbose bool) *Expander {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Expander{
		client:        client,
		maxPages:      maxPages,
		maxPerListing: DefaultMaxPerListing,
		useBrowser:    useBrowser,
		verbose:       verbose,
	}
}

// Expand returns the union of detail links found across the listing page and
// its pagination. Accumulation is monotonic: a fetch failure on a later page
// never discards links already harvested from earlier pages. The structured
// SearchJobs endpoint is tried first; sites that do not answer it fall back
// to HTML scraping.
func (e *Expander) Expand(ctx context.Context, listing types.Link) ([]Detail, error) {
	if details, ok := e.expandViaAPI(ctx, listing); ok {
		return details, nil
	}
	return e.expandViaHTML(ctx, listing)
}

// searchJobsResponse mirrors the JSON the SearchJobs endpoint returns. Sites
// differ on the top-level key, so both are tried.
type searchJobsResponse struct {
	Records []searchJobsRecord `json:"records"`
	Jobs    []searchJobsRecord `json:"jobs"`
}

type searchJobsRecord struct {
	JobID    any    `json:"jobId"`
	ID       any    `json:"id"`
	Title    string `json:"title"`
	JobTitle string `json:"jobTitle"`
	Link     string `json:"link"`
}

// expandViaAPI probes the hidden SearchJobs JSON endpoint most Avature
// instances expose. Returns ok=false when the site does not answer it,
// letting the caller fall back to HTML.
func (e *Expander) expandViaAPI(ctx context.Context, listing types.Link) ([]Detail, bool) {
	origin, err := siteOrigin(listing.URL)
	if err != nil {
		return nil, false
	}
	apiURL := origin + "/careers/SearchJobs"

	seen := mapset.NewSet[string]()
	var details []Detail

	for page := 0; page < e.maxPages; page++ {
		payload, err := json.Marshal(map[string]any{
			"jobOffset":         page * searchJobsBatchSize,
			"jobRecordsPerPage": searchJobsBatchSize,
			"filters":           []any{},
			"sort":              "dateUpdated DESC",
		})
		if err != nil {
			return nil, false
		}

		result, err := e.client.PostJSON(ctx, apiURL, payload)
		if err != nil {
			// A site that rejects the probe outright has no API; one that
			// answered earlier pages keeps what it already gave us.
			if page == 0 {
				return nil, false
			}
			return details, true
		}

		var resp searchJobsResponse
		if err := json.Unmarshal([]byte(result.Body), &resp); err != nil {
			if page == 0 {
				return nil, false
			}
			return details, true
		}

		records := resp.Records
		if len(records) == 0 {
			records = resp.Jobs
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			detailURL := record.Link
			if detailURL == "" {
				if id := recordID(record); id != "" {
					detailURL = fmt.Sprintf("%s/careers/JobDetail/%s", origin, id)
				}
			}
			if detailURL == "" {
				continue
			}
			if strings.HasPrefix(detailURL, "/") {
				detailURL = origin + detailURL
			}
			normalized, err := links.Normalize(detailURL)
			if err != nil || !seen.Add(normalized) {
				continue
			}
			title := record.Title
			if title == "" {
				title = record.JobTitle
			}
			details = append(details, Detail{
				Link:      types.Link{URL: normalized, Kind: types.KindDetail, SourceSite: listing.SourceSite},
				CardTitle: title,
			})
			if len(details) >= e.maxPerListing {
				return details, true
			}
		}

		if len(records) < searchJobsBatchSize {
			break
		}
	}

	if e.verbose {
		log.Printf("[VERBOSE] SearchJobs API yielded %d detail links for %s", len(details), listing.URL)
	}
	return details, len(details) > 0
}

// expandViaHTML scrapes detail links from the rendered listing markup,
// following rel=next pagination.
func (e *Expander) expandViaHTML(ctx context.Context, listing types.Link) ([]Detail, error) {
	seen := mapset.NewSet[string]()
	var details []Detail

	pageURL := listing.URL
	for page := 0; page < e.maxPages && pageURL != ""; page++ {
		result, err := e.client.Fetch(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			// Partial results are kept.
			if e.verbose {
				log.Printf("[VERBOSE] pagination stopped at page %d of %s: %v", page+1, listing.URL, err)
			}
			return details, nil
		}

		pageDetails, nextURL := e.parseListingPage(result.Body, pageURL, listing.SourceSite, seen)

		if page == 0 && len(pageDetails) == 0 && e.useBrowser && fetch.ShouldUseBrowser(result.Body) {
			if rendered, err := fetch.WithBrowser(ctx, pageURL, 0, e.verbose); err == nil {
				pageDetails, nextURL = e.parseListingPage(rendered, pageURL, listing.SourceSite, seen)
			}
		}

		details = append(details, pageDetails...)
		if len(details) >= e.maxPerListing {
			details = details[:e.maxPerListing]
			break
		}
		pageURL = nextURL
	}

	return details, nil
}

// parseListingPage extracts detail links and the next-page URL from one
// listing page's markup.
func (e *Expander) parseListingPage(body, pageURL, sourceSite string, seen mapset.Set[string]) ([]Detail, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, ""
	}

	var details []Detail
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		normalized, err := links.Resolve(base, href)
		if err != nil || !sameHost(normalized, base.Host) {
			return
		}
		kind, ok := links.Classify(normalized)
		if !ok || kind != types.KindDetail {
			return
		}
		if !seen.Add(normalized) {
			return
		}
		details = append(details, Detail{
			Link:      types.Link{URL: normalized, Kind: types.KindDetail, SourceSite: sourceSite},
			CardTitle: cardTitle(s),
		})
	})

	nextURL := ""
	doc.Find("a[rel='next'], a.next, .pagination a[aria-label='Next']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return true
		}
		normalized, err := links.Resolve(base, href)
		if err != nil || !sameHost(normalized, base.Host) {
			return true
		}
		nextURL = normalized
		return false
	})

	return details, nextURL
}

// cardTitle extracts the anchor text as a title fallback, truncated to keep
// card markup noise out of the record.
func cardTitle(s *goquery.Selection) string {
	title := strings.Join(strings.Fields(s.Text()), " ")
	if len(title) > 300 {
		title = title[:300]
	}
	return title
}

func recordID(record searchJobsRecord) string {
	for _, candidate := range []any{record.JobID, record.ID} {
		switch v := candidate.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}
