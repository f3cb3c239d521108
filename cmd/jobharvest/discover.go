package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/discovery"
	"github.com/jonathan/jobharvest/internal/observability"
	"github.com/jonathan/jobharvest/internal/store"
	"github.com/jonathan/jobharvest/internal/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and validate Avature-hosted career sites",
	Long:  "Discover candidate career-site hostnames from certificate transparency logs and search dorking, validate each one against platform signatures, and write the confirmed career hub URLs to a link list.",
	RunE:  runDiscover,
}

var (
	discoverConfigPath string
	discoverOut        string
	discoverAPIKey     string
	discoverCX         string
	discoverVerbose    bool
)

func init() {
	discoverCmd.Flags().StringVarP(&discoverConfigPath, "config", "c", "", "Path to JSON config file")
	discoverCmd.Flags().StringVarP(&discoverOut, "out", "o", "", "Link-list file validated career hubs are written to")
	discoverCmd.Flags().StringVar(&discoverAPIKey, "search-api-key", "", "Custom Search API key (or SEARCH_API_KEY env var)")
	discoverCmd.Flags().StringVar(&discoverCX, "search-cx", "", "Custom Search engine ID (or SEARCH_CX env var)")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(discoverConfigPath)
	if err != nil {
		return err
	}
	if discoverOut != "" {
		cfg.SitesOutput = discoverOut
	}
	if discoverAPIKey == "" {
		discoverAPIKey = firstNonEmpty(cfg.SearchAPIKey, os.Getenv("SEARCH_API_KEY"))
	}
	if discoverCX == "" {
		discoverCX = firstNonEmpty(cfg.SearchCX, os.Getenv("SEARCH_CX"))
	}
	verbose := discoverVerbose || cfg.Verbose

	ctx := cmd.Context()
	client := buildClient(cfg)

	sources := []discovery.Source{discovery.NewCrtShSource(client, "")}
	if discoverAPIKey != "" && discoverCX != "" {
		searchSource, err := discovery.NewSearchSource(ctx, discoverAPIKey, discoverCX)
		if err != nil {
			return fmt.Errorf("failed to initialize search source: %w", err)
		}
		sources = append(sources, searchSource)
	} else if verbose {
		fmt.Fprintln(os.Stderr, "search credentials not set; discovery uses certificate transparency only")
	}

	candidates, err := discovery.NewAggregator(verbose, sources...).Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Discovered %d candidate hostnames\n", len(candidates))

	validator := discovery.NewValidator(client, verbose)
	var validated []types.ValidatedSite
	for _, candidate := range candidates {
		site, err := validator.Validate(ctx, candidate)
		if err != nil {
			continue
		}
		validated = append(validated, *site)
	}

	urls := make([]string, 0, len(validated))
	for _, site := range validated {
		urls = append(urls, site.CareerHubURL)
	}
	if err := store.WriteLinkList(cfg.SitesOutput, urls); err != nil {
		return fmt.Errorf("failed to write site list: %w", err)
	}

	if verbose {
		observability.NewPrinter(os.Stdout).PrintValidatedSites(validated)
	}
	fmt.Fprintf(os.Stdout, "Validated %d career hubs\n", len(validated))
	fmt.Fprintf(os.Stdout, "Site list: %s\n", cfg.SitesOutput)

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
