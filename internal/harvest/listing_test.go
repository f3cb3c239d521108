package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/types"
)

func listingLink(url string) types.Link {
	return types.Link{URL: url, Kind: types.KindListing, SourceSite: "acme.avature.net"}
}

func TestExpand_HTMLListingDetailLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/SearchJobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`
			<html><body>
				<a href="/careers/JobDetail/101">Backend Engineer</a>
				<a href="/careers/JobDetail/102">Data Analyst</a>
				<a href="/careers/JobDetail/103">Product Designer</a>
				<a href="/careers/SearchJobs">Search again</a>
				<a href="/privacy">Privacy</a>
			</body></html>
		`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExpander(newTestClient(), 3, false, false)
	details, err := e.Expand(context.Background(), listingLink(server.URL+"/careers/SearchJobs"))
	require.NoError(t, err)
	require.Len(t, details, 3)

	titles := make(map[string]string)
	for _, d := range details {
		assert.Equal(t, types.KindDetail, d.Link.Kind)
		titles[d.Link.URL] = d.CardTitle
	}
	assert.Equal(t, "Backend Engineer", titles[server.URL+"/careers/JobDetail/101"])
	assert.Equal(t, "Data Analyst", titles[server.URL+"/careers/JobDetail/102"])
	assert.Equal(t, "Product Designer", titles[server.URL+"/careers/JobDetail/103"])
}

func TestExpand_ShallowNumericDetailLinks(t *testing.T) {
	// Some instances serve details directly under the listing base path
	// (/jobs/101) with no JobDetail marker.
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`
			<html><body>
				<a href="/jobs/101">Backend Engineer</a>
				<a href="/jobs/102">Data Analyst</a>
				<a href="/jobs/103">Product Designer</a>
				<a href="/jobs/about">About us</a>
			</body></html>
		`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExpander(newTestClient(), 3, false, false)
	details, err := e.Expand(context.Background(), listingLink(server.URL+"/jobs"))
	require.NoError(t, err)
	require.Len(t, details, 3)

	urls := make([]string, 0, len(details))
	for _, d := range details {
		assert.Equal(t, types.KindDetail, d.Link.Kind)
		urls = append(urls, d.Link.URL)
	}
	assert.Contains(t, urls, server.URL+"/jobs/101")
	assert.Contains(t, urls, server.URL+"/jobs/102")
	assert.Contains(t, urls, server.URL+"/jobs/103")
}

func TestExpand_PaginationFollowedUpToCeiling(t *testing.T) {
	var pagesServed atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/SearchJobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		pagesServed.Add(1)
		fmt.Fprintf(w, `<html><body>
			<a href="/careers/JobDetail/%s01">Job A page %s</a>
			<a href="/careers/SearchJobs?page=%s1" rel="next">Next</a>
		</body></html>`, page, page, page)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExpander(newTestClient(), 2, false, false)
	details, err := e.Expand(context.Background(), listingLink(server.URL+"/careers/SearchJobs"))
	require.NoError(t, err)
	assert.Len(t, details, 2, "one detail per page, two pages allowed")
	assert.Equal(t, int32(2), pagesServed.Load(), "pagination ceiling bounds fetches")
}

func TestExpand_LaterPageFailureKeepsEarlierLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/SearchJobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<html><body>
			<a href="/careers/JobDetail/101">Job A</a>
			<a href="/careers/JobDetail/102">Job B</a>
			<a href="/careers/SearchJobs?page=2" rel="next">Next</a>
		</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExpander(newTestClient(), 5, false, false)
	details, err := e.Expand(context.Background(), listingLink(server.URL+"/careers/SearchJobs"))
	require.NoError(t, err, "a later page failure is not fatal")
	assert.Len(t, details, 2, "links from the first page survive")
}

func TestExpand_SearchJobsAPIPreferred(t *testing.T) {
	var htmlServed atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/careers/SearchJobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			htmlServed.Store(true)
			_, _ = w.Write([]byte(`<html><body><a href="/careers/JobDetail/999">HTML job</a></body></html>`))
			return
		}
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["jobOffset"].(float64) > 0 {
			_, _ = w.Write([]byte(`{"records": []}`))
			return
		}
		_, _ = w.Write([]byte(`{"records": [
			{"jobId": 101, "title": "Backend Engineer"},
			{"jobId": "102", "title": "Data Analyst", "link": "/careers/JobDetail/102"},
			{"title": "No ID, dropped"}
		]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	e := NewExpander(newTestClient(), 3, false, false)
	details, err := e.Expand(context.Background(), listingLink(server.URL+"/careers/SearchJobs"))
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.False(t, htmlServed.Load(), "HTML fallback must not run when the API answers")

	urls := []string{details[0].Link.URL, details[1].Link.URL}
	assert.Contains(t, urls, server.URL+"/careers/JobDetail/101")
	assert.Contains(t, urls, server.URL+"/careers/JobDetail/102")
}

func TestExpand_FirstPageFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := NewExpander(newTestClient(), 3, false, false)
	_, err := e.Expand(context.Background(), listingLink(server.URL+"/careers/SearchJobs"))
	require.Error(t, err)
}
