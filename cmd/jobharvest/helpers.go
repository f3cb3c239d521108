package main

import (
	"fmt"
	"time"

	"github.com/jonathan/jobharvest/internal/config"
	"github.com/jonathan/jobharvest/internal/fetch"
)

// defaultConfig is the baseline every run starts from; config file values
// and flags layer on top.
func defaultConfig() config.Config {
	return config.Config{
		Output:         "jobs.json",
		SitesOutput:    "sites.txt",
		MaxPages:       5,
		MaxPerSite:     200,
		MaxWorkers:     4,
		PerHostDelayMS: 500,
		MaxRetries:     3,
		MergePolicy:    "first_seen_wins",
	}
}

// resolveConfig loads the optional config file and merges it over defaults.
func resolveConfig(path string) (config.Config, error) {
	resolved := defaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		resolved = loaded.MergeWithDefaults(resolved)
	}
	if err := resolved.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return resolved, nil
}

// buildClient constructs the shared fetch client from resolved config.
func buildClient(cfg config.Config) *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		PerHostDelay: time.Duration(cfg.PerHostDelayMS) * time.Millisecond,
		MaxRetries:   cfg.MaxRetries,
	})
}
