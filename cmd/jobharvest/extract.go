package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobharvest/internal/extract"
	"github.com/jonathan/jobharvest/internal/harvest"
	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a single job posting to stdout",
	Long:  "Fetch one job detail page, extract its structured record, and print it as JSON. Useful for checking what a harvest run would produce for a given page.",
	RunE:  runExtract,
}

var (
	extractConfigPath string
	extractURL        string
	extractVerbose    bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractConfigPath, "config", "c", "", "Path to JSON config file")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "Job detail page URL (required)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print detailed debug information")

	extractCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(extractConfigPath)
	if err != nil {
		return err
	}
	verbose := extractVerbose || cfg.Verbose

	normalized, err := links.Normalize(extractURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	detail := harvest.Detail{
		Link: types.Link{URL: normalized, Kind: types.KindDetail, SourceSite: parsed.Host},
	}
	extractor := extract.NewExtractor(buildClient(cfg), verbose)
	record, err := extractor.Extract(cmd.Context(), detail, parsed.Host)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(record)
}
