package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/observability"
	"github.com/jonathan/jobharvest/internal/pipeline"
	"github.com/jonathan/jobharvest/internal/store"
	"github.com/jonathan/jobharvest/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Harvest job postings from validated career hubs",
	Long:  "Read validated career hub URLs from one or more link lists, collect feeds and listings from each site, extract structured job postings, and merge them into the output document.",
	RunE:  runRun,
}

var (
	runConfigPath  string
	runInputs      []string
	runOutput      string
	runLinksOut    string
	runEnableRSS   bool
	runUseBrowser  bool
	runMaxPages    int
	runMaxPerSite  int
	runMaxWorkers  int
	runMergePolicy string
	runVerbose     bool
)

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to JSON config file")
	runCmd.Flags().StringSliceVarP(&runInputs, "input", "i", nil, "Link-list file of validated career hubs (repeatable)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Path to the job records JSON output")
	runCmd.Flags().StringVar(&runLinksOut, "links-out", "", "Write harvested job detail URLs to this link list")
	runCmd.Flags().BoolVar(&runEnableRSS, "enable-rss", false, "Probe career hubs for RSS feeds")
	runCmd.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use a headless browser for script-rendered listings")
	runCmd.Flags().IntVar(&runMaxPages, "max-pages", 0, "Pagination ceiling per listing")
	runCmd.Flags().IntVar(&runMaxPerSite, "max-per-site", 0, "Cap on detail pages per site")
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 0, "Concurrent sites processed")
	runCmd.Flags().StringVar(&runMergePolicy, "merge-policy", "", "Conflict policy for duplicate records (first_seen_wins or last_write_wins)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(runConfigPath)
	if err != nil {
		return err
	}
	if len(runInputs) > 0 {
		cfg.InputSources = runInputs
	}
	if runOutput != "" {
		cfg.Output = runOutput
	}
	if runLinksOut != "" {
		cfg.LinksOutput = runLinksOut
	}
	if runMaxPages > 0 {
		cfg.MaxPages = runMaxPages
	}
	if runMaxPerSite > 0 {
		cfg.MaxPerSite = runMaxPerSite
	}
	if runMaxWorkers > 0 {
		cfg.MaxWorkers = runMaxWorkers
	}
	if runMergePolicy != "" {
		cfg.MergePolicy = runMergePolicy
	}
	cfg.EnableRSS = cfg.EnableRSS || runEnableRSS
	cfg.UseBrowser = cfg.UseBrowser || runUseBrowser
	verbose := runVerbose || cfg.Verbose

	if len(cfg.InputSources) == 0 {
		return fmt.Errorf("no input sources; pass --input or set 'input_sources' in the config")
	}

	seedURLs, err := store.MergeLinkLists(cfg.InputSources)
	if err != nil {
		return fmt.Errorf("failed to read input sources: %w", err)
	}
	hubURLs, seedDetails := partitionSeeds(seedURLs)
	sites, err := sitesFromHubURLs(hubURLs)
	if err != nil {
		return err
	}
	if len(sites) == 0 && len(seedDetails) == 0 {
		return fmt.Errorf("input sources contain no usable URLs")
	}

	p := pipeline.New(pipeline.Options{
		Client:      buildClient(cfg),
		Store:       store.NewStore(cfg.Output, types.MergePolicy(cfg.MergePolicy), verbose),
		EnableRSS:   cfg.EnableRSS,
		MaxPages:    cfg.MaxPages,
		MaxPerSite:  cfg.MaxPerSite,
		UseBrowser:  cfg.UseBrowser,
		MaxWorkers:  cfg.MaxWorkers,
		Verbose:     verbose,
		SeedDetails: seedDetails,
		LinksOutput: cfg.LinksOutput,
	})

	summary, err := p.Run(cmd.Context(), sites)
	if err != nil {
		return fmt.Errorf("harvest run failed: %w", err)
	}

	if verbose {
		observability.NewPrinter(os.Stdout).PrintRunSummary(summary)
	} else {
		fmt.Fprint(os.Stdout, plainSummary(summary))
	}
	fmt.Fprintf(os.Stdout, "Output: %s\n", cfg.Output)
	if cfg.LinksOutput != "" {
		fmt.Fprintf(os.Stdout, "Links:  %s\n", cfg.LinksOutput)
	}

	return nil
}

// plainSummary renders the non-verbose end-of-run report, failure counts by
// category included.
func plainSummary(summary *types.RunSummary) string {
	return fmt.Sprintf("Processed %d sites (%d failed), extracted %d records (%d added, %d merged)\n",
		summary.SitesProcessed, summary.SitesFailed, summary.RecordsExtracted, summary.RecordsAdded, summary.RecordsMerged) +
		fmt.Sprintf("Failures: %d transient, %d permanent, %d parse_incomplete, %d rejected\n",
			summary.CountByKind(types.FailureTransient), summary.CountByKind(types.FailurePermanent),
			summary.CountByKind(types.FailureParseIncomplete), summary.CountByKind(types.FailureRejected))
}

// partitionSeeds splits input URLs into career hubs and direct job detail
// links. Detail links, such as those written by --links-out on an earlier
// run, go straight to extraction without re-crawling their site.
func partitionSeeds(seedURLs []string) ([]string, []types.Link) {
	var hubs []string
	var details []types.Link
	for _, seedURL := range seedURLs {
		normalized, err := links.Normalize(seedURL)
		if err != nil {
			hubs = append(hubs, seedURL)
			continue
		}
		if kind, ok := links.Classify(normalized); ok && kind == types.KindDetail {
			details = append(details, types.Link{URL: normalized, Kind: kind})
			continue
		}
		hubs = append(hubs, seedURL)
	}
	return hubs, details
}

// sitesFromHubURLs turns seed hub URLs into validated-site inputs. Seeds are
// trusted; entries that are not absolute URLs are rejected outright.
func sitesFromHubURLs(hubURLs []string) ([]types.ValidatedSite, error) {
	sites := make([]types.ValidatedSite, 0, len(hubURLs))
	for _, hubURL := range hubURLs {
		parsed, err := url.Parse(hubURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid career hub URL in input: %q", hubURL)
		}
		sites = append(sites, types.ValidatedSite{
			Hostname:     parsed.Host,
			CareerHubURL: hubURL,
			ConfirmedAt:  time.Now().UTC(),
		})
	}
	return sites, nil
}
