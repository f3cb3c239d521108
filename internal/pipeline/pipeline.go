// Package pipeline orchestrates a harvest run: for each validated career
// hub, collect links, expand listings, walk feeds, extract job records, and
// commit the batch to the store. Sites are processed concurrently; a failure
// on one site is recorded and never aborts the run.
package pipeline

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobharvest/internal/extract"
	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/harvest"
	"github.com/jonathan/jobharvest/internal/store"
	"github.com/jonathan/jobharvest/internal/types"
)

// DefaultMaxWorkers bounds concurrent site processing.
const DefaultMaxWorkers = 4

// DefaultMaxPerSite caps how many detail pages one site may contribute,
// bounding runaway instances with thousands of postings.
const DefaultMaxPerSite = 200

// Options configures a pipeline run.
type Options struct {
	Client     *fetch.Client
	Store      *store.Store
	EnableRSS  bool
	MaxPages   int
	MaxPerSite int
	UseBrowser bool
	MaxWorkers int
	Verbose    bool

	// SeedDetails are job detail links fed in directly, typically from a
	// link list written by an earlier run. They skip hub harvesting and go
	// straight to extraction.
	SeedDetails []types.Link

	// LinksOutput, when set, receives every harvested detail URL as a link
	// list so a later run can re-extract without re-crawling.
	LinksOutput string
}

// Pipeline wires the harvest stages together over a shared fetch client.
type Pipeline struct {
	harvester *harvest.Harvester
	expander  *harvest.Expander
	extractor *extract.Extractor
	store     *store.Store

	maxWorkers  int
	maxPerSite  int
	enableRSS   bool
	verbose     bool
	seedDetails []types.Link
	linksOutput string
}

// New builds a pipeline from options. Client and Store are required.
func New(opts Options) *Pipeline {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.MaxPerSite <= 0 {
		opts.MaxPerSite = DefaultMaxPerSite
	}
	return &Pipeline{
		harvester:   harvest.NewHarvester(opts.Client, opts.EnableRSS, opts.Verbose),
		expander:    harvest.NewExpander(opts.Client, opts.MaxPages, opts.UseBrowser, opts.Verbose),
		extractor:   extract.NewExtractor(opts.Client, opts.Verbose),
		store:       opts.Store,
		maxWorkers:  opts.MaxWorkers,
		maxPerSite:  opts.MaxPerSite,
		enableRSS:   opts.EnableRSS,
		verbose:     opts.Verbose,
		seedDetails: opts.SeedDetails,
		linksOutput: opts.LinksOutput,
	}
}

// siteResult is what one site worker hands back to the run.
type siteResult struct {
	links      int
	records    []types.JobRecord
	detailURLs []string
	failures   []types.SiteFailure
}

// Run processes every site and commits the accumulated records. The
// returned summary reports per-site failures; Run itself fails only when
// the context is cancelled or the final commit cannot be written.
func (p *Pipeline) Run(ctx context.Context, sites []types.ValidatedSite) (*types.RunSummary, error) {
	summary := &types.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	var records []types.JobRecord
	var detailURLs []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for _, site := range sites {
		site := site
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := p.processSite(ctx, site)

			mu.Lock()
			defer mu.Unlock()
			summary.SitesProcessed++
			summary.LinksFound += result.links
			summary.Failures = append(summary.Failures, result.failures...)
			if len(result.failures) > 0 {
				summary.SitesFailed++
			}
			records = append(records, result.records...)
			detailURLs = append(detailURLs, result.detailURLs...)
			return nil
		})
	}

	for host, seeds := range seedsByHost(p.seedDetails) {
		host, seeds := host, seeds
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := p.extractDetails(ctx, host, toDetails(seeds))

			mu.Lock()
			defer mu.Unlock()
			summary.LinksFound += len(seeds)
			summary.Failures = append(summary.Failures, result.failures...)
			records = append(records, result.records...)
			detailURLs = append(detailURLs, result.detailURLs...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.RecordsExtracted = len(records)
	stats, err := p.store.Commit(records)
	if err != nil {
		summary.FinishedAt = time.Now().UTC()
		return summary, err
	}
	summary.RecordsAdded = stats.Added
	summary.RecordsMerged = stats.Merged
	summary.FinishedAt = time.Now().UTC()

	if p.linksOutput != "" {
		sort.Strings(detailURLs)
		if err := store.WriteLinkList(p.linksOutput, detailURLs); err != nil {
			return summary, err
		}
	}

	if p.verbose {
		log.Printf("[VERBOSE] run %s: %d sites, %d records extracted, %d added, %d merged",
			summary.RunID, summary.SitesProcessed, summary.RecordsExtracted, summary.RecordsAdded, summary.RecordsMerged)
	}
	return summary, nil
}

// processSite walks one career hub end to end. Every failure is recorded
// against the site; extraction continues past individual bad pages.
func (p *Pipeline) processSite(ctx context.Context, site types.ValidatedSite) siteResult {
	result := siteResult{}

	links, err := p.harvester.Harvest(ctx, site)
	if err != nil {
		result.failures = append(result.failures, failure(site.Hostname, "harvest", err))
		return result
	}
	result.links = len(links)

	seen := mapset.NewSet[string]()
	var details []harvest.Detail

	addDetail := func(d harvest.Detail) {
		if seen.Add(d.Link.URL) {
			details = append(details, d)
		}
	}

	for _, link := range links {
		switch link.Kind {
		case types.KindDetail:
			addDetail(harvest.Detail{Link: link})
		case types.KindListing:
			expanded, err := p.expander.Expand(ctx, link)
			if err != nil {
				result.failures = append(result.failures, failure(site.Hostname, "expand", err))
				continue
			}
			for _, d := range expanded {
				addDetail(d)
			}
		case types.KindFeed:
			// Feed harvesting is opt-in; advertised feeds are ignored too.
			if !p.enableRSS {
				continue
			}
			for _, d := range p.feedDetails(ctx, link, site) {
				addDetail(d)
			}
		}
	}

	// Conventional feed paths are probed even when the hub page links no feed.
	if feedLink, body, err := p.harvester.ProbeFeeds(ctx, site); err == nil && feedLink != nil {
		if feed, err := harvest.ParseFeed(body); err == nil {
			for _, entry := range harvest.ClassifyEntries(feed, site.Hostname) {
				addDetail(harvest.Detail{Link: entry})
			}
		}
	}

	extracted := p.extractDetails(ctx, site.Hostname, details)
	result.records = extracted.records
	result.detailURLs = extracted.detailURLs
	result.failures = append(result.failures, extracted.failures...)
	return result
}

// extractDetails pulls a job record out of each detail page. It serves both
// harvested details and seed links fed in from an earlier run's link list.
func (p *Pipeline) extractDetails(ctx context.Context, host string, details []harvest.Detail) siteResult {
	result := siteResult{}

	if len(details) > p.maxPerSite {
		if p.verbose {
			log.Printf("[VERBOSE] %s: capping %d detail pages at %d", host, len(details), p.maxPerSite)
		}
		details = details[:p.maxPerSite]
	}

	for _, detail := range details {
		result.detailURLs = append(result.detailURLs, detail.Link.URL)
		if ctx.Err() != nil {
			return result
		}
		record, err := p.extractor.Extract(ctx, detail, host)
		if err != nil {
			result.failures = append(result.failures, failure(host, "extract", err))
			continue
		}
		result.records = append(result.records, *record)
	}
	return result
}

// seedsByHost groups seed links so each host is worked by one goroutine and
// per-host caps still apply.
func seedsByHost(seeds []types.Link) map[string][]types.Link {
	if len(seeds) == 0 {
		return nil
	}
	grouped := make(map[string][]types.Link)
	for _, seed := range seeds {
		host := seed.SourceSite
		if host == "" {
			if parsed, err := url.Parse(seed.URL); err == nil {
				host = parsed.Host
			}
		}
		grouped[host] = append(grouped[host], seed)
	}
	return grouped
}

func toDetails(seeds []types.Link) []harvest.Detail {
	details := make([]harvest.Detail, 0, len(seeds))
	for _, seed := range seeds {
		details = append(details, harvest.Detail{Link: seed})
	}
	return details
}

// feedDetails fetches and classifies one feed found on the hub page.
func (p *Pipeline) feedDetails(ctx context.Context, link types.Link, site types.ValidatedSite) []harvest.Detail {
	fetched, err := p.harvester.FetchFeed(ctx, link)
	if err != nil {
		if p.verbose {
			log.Printf("[VERBOSE] feed %s unreadable: %v", link.URL, err)
		}
		return nil
	}
	var details []harvest.Detail
	for _, entry := range harvest.ClassifyEntries(fetched, site.Hostname) {
		details = append(details, harvest.Detail{Link: entry})
	}
	return details
}

// failure classifies an error into the reporting bucket it belongs to.
func failure(site, stage string, err error) types.SiteFailure {
	return types.SiteFailure{
		Site:   site,
		Stage:  stage,
		Kind:   classify(err),
		Reason: err.Error(),
	}
}

func classify(err error) types.FailureKind {
	if errors.Is(err, extract.ErrParseIncomplete) {
		return types.FailureParseIncomplete
	}
	if fetch.IsRetryable(err) {
		return types.FailureTransient
	}
	return types.FailurePermanent
}
