// Package harvest collects and classifies outbound links from validated
// career sites: hub pages, RSS feeds, and job listing views.
package harvest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mmcdole/gofeed"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/types"
)

// feedProbePaths are the feed locations Avature instances conventionally
// serve, probed when the hub page does not advertise a feed.
var feedProbePaths = []string{
	"/rss",
	"/careers/rss",
	"/jobs/rss",
	"/feed",
	"/careers/feed",
	"/jobs/feed",
}

// HarvestError represents a failure collecting links from a career hub.
type HarvestError struct {
	Site    string
	Message string
	Cause   error
}

func (e *HarvestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("harvest error for %s: %s: %v", e.Site, e.Message, e.Cause)
	}
	return fmt.Sprintf("harvest error for %s: %s", e.Site, e.Message)
}

func (e *HarvestError) Unwrap() error {
	return e.Cause
}

// Harvester extracts classified links from career hub pages.
type Harvester struct {
	client    *fetch.Client
	enableRSS bool
	verbose   bool
}

// NewHarvester creates a harvester over the shared fetch client.
func NewHarvester(client *fetch.Client, enableRSS, verbose bool) *Harvester {
	return &Harvester{client: client, enableRSS: enableRSS, verbose: verbose}
}

// Harvest fetches the site's career hub page and returns every same-host
// outbound link that classifies as a feed, listing, or job detail. Links
// matching no known pattern are discarded; the pipeline only acts on
// classified links. The hub page itself is included as a listing when it
// classifies as one, since Avature hubs usually are the search view.
func (h *Harvester) Harvest(ctx context.Context, site types.ValidatedSite) ([]types.Link, error) {
	result, err := h.client.Fetch(ctx, site.CareerHubURL)
	if err != nil {
		return nil, &HarvestError{Site: site.Hostname, Message: "failed to fetch career hub", Cause: err}
	}

	base, err := url.Parse(result.URL)
	if err != nil {
		return nil, &HarvestError{Site: site.Hostname, Message: "invalid hub URL", Cause: err}
	}

	seen := mapset.NewSet[string]()
	var harvested []types.Link

	add := func(normalized string, kind types.LinkKind) {
		if !seen.Add(normalized) {
			return
		}
		harvested = append(harvested, types.Link{
			URL:        normalized,
			Kind:       kind,
			SourceSite: site.Hostname,
		})
	}

	if hubURL, err := links.Normalize(site.CareerHubURL); err == nil {
		if kind, ok := links.Classify(hubURL); ok {
			add(hubURL, kind)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
	if err != nil {
		return nil, &HarvestError{Site: site.Hostname, Message: "failed to parse hub HTML", Cause: err}
	}

	// Advertised feeds come first; they carry explicit type information.
	doc.Find("link[rel='alternate'][type*='rss'], link[rel='alternate'][type*='atom']").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		normalized, err := links.Resolve(base, href)
		if err != nil || !sameHost(normalized, base.Host) {
			return
		}
		add(normalized, types.KindFeed)
	})

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
		if !ok {
			return
		}
		add(normalized, kind)
	})

	if h.verbose {
		log.Printf("[VERBOSE] harvested %d classified links from %s", len(harvested), site.Hostname)
	}
	return harvested, nil
}

// ProbeFeeds tries the conventional feed paths for a site and returns the
// first one that fetches successfully, as a feed link plus its raw body.
// Probes are speculative, so individual failures are silent; a site without
// a feed returns (nil, "", nil).
func (h *Harvester) ProbeFeeds(ctx context.Context, site types.ValidatedSite) (*types.Link, string, error) {
	if !h.enableRSS {
		return nil, "", nil
	}

	origin, err := siteOrigin(site.CareerHubURL)
	if err != nil {
		return nil, "", &HarvestError{Site: site.Hostname, Message: "invalid hub URL", Cause: err}
	}

	for _, path := range feedProbePaths {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		probeURL := origin + path
		result, err := h.client.Fetch(ctx, probeURL)
		if err != nil {
			if h.verbose {
				log.Printf("[VERBOSE] feed probe %s: %v", probeURL, err)
			}
			continue
		}
		if !looksLikeFeed(result) {
			continue
		}
		normalized, err := links.Normalize(probeURL)
		if err != nil {
			continue
		}
		return &types.Link{URL: normalized, Kind: types.KindFeed, SourceSite: site.Hostname}, result.Body, nil
	}
	return nil, "", nil
}

// FetchFeed fetches and parses a feed link found on a hub page.
func (h *Harvester) FetchFeed(ctx context.Context, link types.Link) (*gofeed.Feed, error) {
	result, err := h.client.Fetch(ctx, link.URL)
	if err != nil {
		return nil, &HarvestError{Site: link.SourceSite, Message: "failed to fetch feed", Cause: err}
	}
	feed, err := ParseFeed(result.Body)
	if err != nil {
		return nil, &HarvestError{Site: link.SourceSite, Message: "failed to parse feed", Cause: err}
	}
	return feed, nil
}

func looksLikeFeed(result *fetch.Result) bool {
	contentType := strings.ToLower(result.ContentType)
	if strings.Contains(contentType, "xml") || strings.Contains(contentType, "rss") {
		return true
	}
	trimmed := strings.TrimSpace(result.Body)
	return strings.HasPrefix(trimmed, "<?xml") || strings.HasPrefix(trimmed, "<rss")
}

func sameHost(normalized, host string) bool {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, host)
}

func siteOrigin(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("URL %s has no scheme or host", rawURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
