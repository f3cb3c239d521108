package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/types"
)

func newTestClient() *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		Timeout:      5 * time.Second,
		PerHostDelay: 0,
		MaxRetries:   0,
	})
}

func testSite(hubURL string) types.ValidatedSite {
	return types.ValidatedSite{
		Hostname:     "acme.avature.net",
		CareerHubURL: hubURL,
		ConfirmedAt:  time.Now(),
	}
}

func TestHarvest_ClassifiesHubLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
			<html><head>
				<link rel="alternate" type="application/rss+xml" href="/careers/rss" />
			</head><body>
				<a href="/careers/SearchJobs">Search Jobs</a>
				<a href="/careers/JobDetail/101">Featured role</a>
				<a href="/about-us">About</a>
				<a href="https://twitter.com/acme">Twitter</a>
			</body></html>
		`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	h := NewHarvester(newTestClient(), true, false)
	harvested, err := h.Harvest(context.Background(), testSite(server.URL+"/careers"))
	require.NoError(t, err)

	byKind := make(map[types.LinkKind][]string)
	for _, link := range harvested {
		byKind[link.Kind] = append(byKind[link.Kind], link.URL)
		assert.Equal(t, "acme.avature.net", link.SourceSite)
	}

	assert.Contains(t, byKind[types.KindFeed], server.URL+"/careers/rss")
	assert.Contains(t, byKind[types.KindListing], server.URL+"/careers/SearchJobs")
	assert.Contains(t, byKind[types.KindDetail], server.URL+"/careers/JobDetail/101")

	// Off-host and unclassifiable links are discarded, not kept as unknown.
	for _, urls := range byKind {
		assert.NotContains(t, urls, server.URL+"/about-us")
		assert.NotContains(t, urls, "https://twitter.com/acme")
	}
}

func TestHarvest_IncludesHubAsListing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no links here</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	h := NewHarvester(newTestClient(), false, false)
	harvested, err := h.Harvest(context.Background(), testSite(server.URL+"/careers"))
	require.NoError(t, err)
	require.Len(t, harvested, 1)
	assert.Equal(t, types.KindListing, harvested[0].Kind)
}

func TestHarvest_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	h := NewHarvester(newTestClient(), false, false)
	_, err := h.Harvest(context.Background(), testSite(server.URL+"/careers"))
	require.Error(t, err)

	var harvestErr *HarvestError
	require.ErrorAs(t, err, &harvestErr)
	assert.Equal(t, "acme.avature.net", harvestErr.Site)
}

func TestProbeFeeds_FindsConventionalPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/rss", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Jobs</title></channel></rss>`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	h := NewHarvester(newTestClient(), true, false)
	link, body, err := h.ProbeFeeds(context.Background(), testSite(server.URL+"/careers"))
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, types.KindFeed, link.Kind)
	assert.Equal(t, server.URL+"/careers/rss", link.URL)
	assert.Contains(t, body, "<rss")
}

func TestProbeFeeds_NoFeedIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := NewHarvester(newTestClient(), true, false)
	link, body, err := h.ProbeFeeds(context.Background(), testSite(server.URL+"/careers"))
	require.NoError(t, err)
	assert.Nil(t, link)
	assert.Empty(t, body)
}

func TestProbeFeeds_DisabledRSS(t *testing.T) {
	h := NewHarvester(newTestClient(), false, false)
	link, body, err := h.ProbeFeeds(context.Background(), testSite("https://acme.avature.net/careers"))
	require.NoError(t, err)
	assert.Nil(t, link)
	assert.Empty(t, body)
}
