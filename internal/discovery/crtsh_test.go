package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/fetch"
)

func newTestClient() *fetch.Client {
	return fetch.NewClient(&fetch.Options{
		Timeout:      5 * time.Second,
		PerHostDelay: 0,
		MaxRetries:   0,
	})
}

func TestCrtShSource_ParsesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name_value": "acme.avature.net"},
			{"name_value": "*.beta.avature.net\ngamma.avature.net"},
			{"name_value": ""}
		]`))
	}))
	defer server.Close()

	src := NewCrtShSource(newTestClient(), server.URL)
	hostnames, err := src.Hostnames(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acme.avature.net", "beta.avature.net", "gamma.avature.net"}, hostnames)
}

func TestCrtShSource_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>rate limited</html>"))
	}))
	defer server.Close()

	src := NewCrtShSource(newTestClient(), server.URL)
	_, err := src.Hostnames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestCrtShSource_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewCrtShSource(newTestClient(), server.URL)
	_, err := src.Hostnames(context.Background())
	require.Error(t, err)
}
