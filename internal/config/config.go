// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Output       string   `json:"output,omitempty"`        // Path to the job records JSON output
	InputSources []string `json:"input_sources,omitempty"` // Link-list files of career hubs or job detail URLs
	SitesOutput  string   `json:"sites_output,omitempty"`  // Path discovered/validated hubs are written to
	LinksOutput  string   `json:"links_output,omitempty"`  // Path harvested job detail URLs are written to

	// Discovery
	SearchAPIKey string `json:"search_api_key,omitempty"` // Custom Search API key
	SearchCX     string `json:"search_cx,omitempty"`      // Custom Search engine ID

	// Harvesting
	EnableRSS  bool `json:"enable_rss,omitempty"`                    // Probe career hubs for RSS feeds
	MaxPages   int  `json:"max_pages,omitempty" validate:"gte=0"`    // Pagination ceiling per listing
	MaxPerSite int  `json:"max_per_site,omitempty" validate:"gte=0"` // Cap on detail pages per site
	UseBrowser bool `json:"use_browser,omitempty"`                   // Headless-browser fallback for script-rendered listings

	// Fetching
	PerHostDelayMS int `json:"per_host_delay_ms,omitempty" validate:"gte=0"` // Minimum delay between requests to one host
	MaxRetries     int `json:"max_retries,omitempty" validate:"gte=0"`       // Retry budget for transient failures

	// Behavior
	MaxWorkers  int    `json:"max_workers,omitempty" validate:"gte=0"`                                            // Concurrent sites processed
	MergePolicy string `json:"merge_policy,omitempty" validate:"omitempty,oneof=first_seen_wins last_write_wins"` // Conflict policy for duplicate records
	Verbose     bool   `json:"verbose,omitempty"`                                                                 // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			first := fieldErrors[0]
			return fmt.Errorf("config error: field %q failed %q validation", first.Field(), first.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	for _, source := range c.InputSources {
		if _, err := os.Stat(source); os.IsNotExist(err) {
			return fmt.Errorf("config error: input source not found: %s", source)
		}
	}

	// Search credentials come as a pair
	if (c.SearchAPIKey == "") != (c.SearchCX == "") {
		return fmt.Errorf("config error: 'search_api_key' and 'search_cx' must be set together")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.SitesOutput == "" {
		result.SitesOutput = defaults.SitesOutput
	}
	if result.LinksOutput == "" {
		result.LinksOutput = defaults.LinksOutput
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchCX == "" {
		result.SearchCX = defaults.SearchCX
	}
	if result.MergePolicy == "" {
		result.MergePolicy = defaults.MergePolicy
	}

	// Slice fields: use default if empty
	if len(result.InputSources) == 0 {
		result.InputSources = defaults.InputSources
	}

	// Int fields: use default if zero
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}
	if result.MaxPerSite == 0 {
		result.MaxPerSite = defaults.MaxPerSite
	}
	if result.MaxWorkers == 0 {
		result.MaxWorkers = defaults.MaxWorkers
	}
	if result.PerHostDelayMS == 0 {
		result.PerHostDelayMS = defaults.PerHostDelayMS
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
