// Package types provides type definitions for structured data used throughout the jobharvest system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// DiscoverySource identifies which discovery channel produced a candidate.
type DiscoverySource string

const (
	// SourceCertTransparency marks candidates found via certificate transparency logs (crt.sh)
	SourceCertTransparency DiscoverySource = "cert_transparency"
	// SourceSearchEngine marks candidates found via web search
	SourceSearchEngine DiscoverySource = "search_engine"
	// SourceSeedFile marks sites supplied directly by the user, bypassing discovery
	SourceSeedFile DiscoverySource = "seed_file"
)

// CandidateSite is an unverified hostname that may host a career site.
// Candidates are transient: they are consumed by validation and never persisted.
type CandidateSite struct {
	Hostname  string          `json:"hostname"`
	Source    DiscoverySource `json:"source"`
	FirstSeen time.Time       `json:"first_seen"`
}

// ValidatedSite is a hostname confirmed to be a genuine career-site instance.
// Immutable once created; only the validator constructs these.
type ValidatedSite struct {
	Hostname     string    `json:"hostname"`
	CareerHubURL string    `json:"career_hub_url"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
}
