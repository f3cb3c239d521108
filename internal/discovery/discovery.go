// Package discovery finds candidate career-site hostnames for the target ATS
// platform and validates that they are genuine instances before crawling.
package discovery

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jonathan/jobharvest/internal/types"
)

// PlatformDomain is the ATS vendor domain whose career subdomains are harvested.
const PlatformDomain = "avature.net"

// vendorHosts are the vendor's own marketing/support hosts, never career sites.
var vendorHosts = map[string]bool{
	"avature.net":     true,
	"www.avature.net": true,
	"kb.avature.net":  true,
}

// skipSubstrings mark infrastructure subdomains that never serve careers pages.
var skipSubstrings = []string{
	"analytics",
	"cdn",
	"clientcertificate",
	"smtp",
	"mail",
	"sandbox",
	"uat",
	"qa",
	"integrations",
	"jarvis",
	"mobiletrust",
}

// Source produces candidate hostnames from one discovery channel.
type Source interface {
	Name() types.DiscoverySource
	Hostnames(ctx context.Context) ([]string, error)
}

// Aggregator merges candidates from independent sources. A failing source
// contributes an empty set rather than failing the whole discovery.
type Aggregator struct {
	sources []Source
	verbose bool
	now     func() time.Time
}

// NewAggregator creates an aggregator over the given sources.
func NewAggregator(verbose bool, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, verbose: verbose, now: time.Now}
}

// Discover queries every source and returns the merged, deduplicated
// candidate set. Hostnames are lowercased before merging; ordering across
// sources is not meaningful and callers must not depend on it.
func (a *Aggregator) Discover(ctx context.Context) ([]types.CandidateSite, error) {
	if len(a.sources) == 0 {
		return nil, fmt.Errorf("discovery requires at least one source")
	}

	seen := mapset.NewSet[string]()
	var candidates []types.CandidateSite

	for _, source := range a.sources {
		hostnames, err := source.Hostnames(ctx)
		if err != nil {
			log.Printf("[discovery] source %s failed: %v — continuing with remaining sources", source.Name(), err)
			continue
		}
		if a.verbose {
			log.Printf("[VERBOSE] source %s returned %d hostnames", source.Name(), len(hostnames))
		}

		for _, hostname := range hostnames {
			hostname = strings.ToLower(strings.TrimSpace(hostname))
			if !UsableHostname(hostname) {
				continue
			}
			if !seen.Add(hostname) {
				continue
			}
			candidates = append(candidates, types.CandidateSite{
				Hostname:  hostname,
				Source:    source.Name(),
				FirstSeen: a.now(),
			})
		}
	}

	// Stable output makes runs comparable; downstream does not rely on order.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Hostname < candidates[j].Hostname })
	return candidates, nil
}

// UsableHostname reports whether a hostname is a plausible career subdomain:
// on the platform domain, not a vendor host, and not known infrastructure.
func UsableHostname(hostname string) bool {
	if hostname == "" || strings.Contains(hostname, "*") {
		return false
	}
	if !strings.HasSuffix(hostname, PlatformDomain) {
		return false
	}
	if vendorHosts[hostname] {
		return false
	}
	for _, skip := range skipSubstrings {
		if strings.Contains(hostname, skip) {
			return false
		}
	}
	return true
}

// CareerPathCandidates returns the URLs to probe for a hostname's career hub,
// in priority order.
func CareerPathCandidates(hostname string) []string {
	base := "https://" + hostname
	return []string{base + "/careers", base + "/jobs", base}
}
