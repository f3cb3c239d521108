package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/types"
)

// DefaultCrtShURL is the certificate-transparency search endpoint for the
// platform domain. Every certificate ever issued for a subdomain shows up
// here, which makes it the widest-reaching discovery channel.
const DefaultCrtShURL = "https://crt.sh/?q=%25." + PlatformDomain + "&output=json"

// CrtShSource discovers hostnames from certificate transparency logs.
type CrtShSource struct {
	client   *fetch.Client
	endpoint string
}

// NewCrtShSource creates a crt.sh discovery source. An empty endpoint uses
// the default; tests point it at a local server.
func NewCrtShSource(client *fetch.Client, endpoint string) *CrtShSource {
	if endpoint == "" {
		endpoint = DefaultCrtShURL
	}
	return &CrtShSource{client: client, endpoint: endpoint}
}

// Name implements Source.
func (s *CrtShSource) Name() types.DiscoverySource {
	return types.SourceCertTransparency
}

// crtShEntry mirrors one record of the crt.sh JSON response. name_value may
// hold several hostnames separated by newlines.
type crtShEntry struct {
	NameValue string `json:"name_value"`
}

// Hostnames implements Source. Wildcard prefixes are stripped; filtering to
// usable hostnames happens in the aggregator.
func (s *CrtShSource) Hostnames(ctx context.Context) ([]string, error) {
	result, err := s.client.Fetch(ctx, s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("crt.sh query: %w", err)
	}

	var entries []crtShEntry
	if err := json.Unmarshal([]byte(result.Body), &entries); err != nil {
		return nil, fmt.Errorf("crt.sh response parse: %w", err)
	}

	var hostnames []string
	for _, entry := range entries {
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.TrimPrefix(strings.TrimSpace(name), "*.")
			if name != "" {
				hostnames = append(hostnames, name)
			}
		}
	}
	return hostnames, nil
}
