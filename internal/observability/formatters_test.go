package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobharvest/internal/types"
)

func TestPrintValidatedSites(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidatedSites([]types.ValidatedSite{
		{Hostname: "careers.acme.avature.net", CareerHubURL: "https://careers.acme.avature.net/careers"},
	})

	out := buf.String()
	assert.Contains(t, out, "VALIDATED CAREER HUBS")
	assert.Contains(t, out, "careers.acme.avature.net")
}

func TestPrintValidatedSitesEmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintValidatedSites(nil)
	assert.Empty(t, buf.String())
}

func TestPrintLinksGroupsByKind(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLinks([]types.Link{
		{URL: "https://careers.acme.avature.net/careers/rss", Kind: types.KindFeed},
		{URL: "https://careers.acme.avature.net/careers/SearchJobs", Kind: types.KindListing},
		{URL: "https://careers.acme.avature.net/careers/JobDetail/1", Kind: types.KindDetail},
		{URL: "https://careers.acme.avature.net/careers/JobDetail/2", Kind: types.KindDetail},
	})

	out := buf.String()
	assert.Contains(t, out, "Feeds:    1")
	assert.Contains(t, out, "Listings: 1")
	assert.Contains(t, out, "Details:  2")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p.PrintRunSummary(&types.RunSummary{
		RunID:            "run-1",
		StartedAt:        started,
		FinishedAt:       started.Add(3 * time.Second),
		SitesProcessed:   2,
		SitesFailed:      1,
		RecordsExtracted: 5,
		Failures: []types.SiteFailure{
			{Site: "jobs.globex.avature.net", Stage: "harvest", Kind: types.FailureTransient, Reason: "server unavailable"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "Sites processed:   2")
	assert.Contains(t, out, "RUN FAILURES")
	assert.Contains(t, out, "transient_network: 1")
	assert.Contains(t, out, "jobs.globex.avature.net")
}

func TestPrintFailuresCleanBill(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFailures(&types.RunSummary{})
	assert.Contains(t, buf.String(), "NO FAILURES")
}
