package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/types"
)

type stubSource struct {
	name      types.DiscoverySource
	hostnames []string
	err       error
}

func (s *stubSource) Name() types.DiscoverySource { return s.name }

func (s *stubSource) Hostnames(_ context.Context) ([]string, error) {
	return s.hostnames, s.err
}

func TestDiscover_MergesAndDeduplicates(t *testing.T) {
	crt := &stubSource{
		name:      types.SourceCertTransparency,
		hostnames: []string{"Acme.avature.net", "beta.avature.net", "acme.avature.net"},
	}
	search := &stubSource{
		name:      types.SourceSearchEngine,
		hostnames: []string{"acme.avature.net", "gamma.avature.net"},
	}

	agg := NewAggregator(false, crt, search)
	candidates, err := agg.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byHost := make(map[string]types.CandidateSite)
	for _, c := range candidates {
		byHost[c.Hostname] = c
	}
	assert.Equal(t, types.SourceCertTransparency, byHost["acme.avature.net"].Source, "first source to report a host wins")
	assert.Equal(t, types.SourceSearchEngine, byHost["gamma.avature.net"].Source)
}

func TestDiscover_FailingSourceContributesEmptySet(t *testing.T) {
	broken := &stubSource{name: types.SourceSearchEngine, err: fmt.Errorf("quota exceeded")}
	working := &stubSource{
		name:      types.SourceCertTransparency,
		hostnames: []string{"acme.avature.net"},
	}

	agg := NewAggregator(false, broken, working)
	candidates, err := agg.Discover(context.Background())
	require.NoError(t, err, "a failing source must not abort discovery")
	require.Len(t, candidates, 1)
	assert.Equal(t, "acme.avature.net", candidates[0].Hostname)
}

func TestDiscover_FiltersUnusableHostnames(t *testing.T) {
	src := &stubSource{
		name: types.SourceCertTransparency,
		hostnames: []string{
			"acme.avature.net",
			"www.avature.net",       // vendor marketing site
			"kb.avature.net",        // vendor support site
			"cdn.avature.net",       // infrastructure
			"uat.acme.avature.net",  // staging
			"careers.example.com",   // off-platform
			"*.wild.avature.net",    // wildcard never stripped upstream
		},
	}

	agg := NewAggregator(false, src)
	candidates, err := agg.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "acme.avature.net", candidates[0].Hostname)
}

func TestUsableHostname(t *testing.T) {
	assert.True(t, UsableHostname("nike.avature.net"))
	assert.False(t, UsableHostname(""))
	assert.False(t, UsableHostname("avature.net"))
	assert.False(t, UsableHostname("analytics.avature.net"))
	assert.False(t, UsableHostname("jobs.example.com"))
}

func TestCareerPathCandidates(t *testing.T) {
	paths := CareerPathCandidates("acme.avature.net")
	require.Len(t, paths, 3)
	assert.Equal(t, "https://acme.avature.net/careers", paths[0])
	assert.Equal(t, "https://acme.avature.net/jobs", paths[1])
	assert.Equal(t, "https://acme.avature.net", paths[2])
}

func TestHostFromLink(t *testing.T) {
	assert.Equal(t, "acme.avature.net", hostFromLink("https://acme.avature.net/careers/SearchJobs"))
	assert.Equal(t, "", hostFromLink("https://example.com/jobs"))
	assert.Equal(t, "", hostFromLink("::bad::"))
}
