package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/jobharvest/internal/types"
)

// searchQueries are the dork-style queries used to surface career instances
// that never appear in certificate logs under a recognizable name.
var searchQueries = []string{
	"site:" + PlatformDomain + " careers",
	"inurl:" + PlatformDomain + "/careers",
	"inurl:" + PlatformDomain + "/jobs",
	"\"powered by Avature\" careers",
}

// resultsPerQuery caps each query; search quota is the scarce resource here.
const resultsPerQuery = 10

// SearchSource discovers hostnames via the Google Custom Search API.
type SearchSource struct {
	svc *customsearch.Service
	cx  string
}

// NewSearchSource creates a search-based discovery source.
func NewSearchSource(ctx context.Context, apiKey, cx string) (*SearchSource, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &SearchSource{svc: svc, cx: cx}, nil
}

// Name implements Source.
func (s *SearchSource) Name() types.DiscoverySource {
	return types.SourceSearchEngine
}

// Hostnames implements Source. Individual query failures are skipped; the
// source fails only when every query fails.
func (s *SearchSource) Hostnames(ctx context.Context) ([]string, error) {
	var hostnames []string
	failures := 0

	for _, query := range searchQueries {
		resp, err := s.svc.Cse.List().Context(ctx).Cx(s.cx).Q(query).Num(resultsPerQuery).Do()
		if err != nil {
			log.Printf("[discovery] search query %q failed: %v", query, err)
			failures++
			continue
		}
		for _, item := range resp.Items {
			if host := hostFromLink(item.Link); host != "" {
				hostnames = append(hostnames, host)
			}
		}
	}

	if failures == len(searchQueries) {
		return nil, fmt.Errorf("all %d search queries failed", failures)
	}
	return hostnames, nil
}

func hostFromLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if !strings.HasSuffix(host, PlatformDomain) {
		return ""
	}
	return host
}
