package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobharvest/internal/fetch"
	"github.com/jonathan/jobharvest/internal/types"
)

// ErrNotValidated is the normal negative result for a candidate that is
// reachable but shows no platform signature, or is unreachable entirely.
var ErrNotValidated = errors.New("candidate is not a validated career site")

// markupSignatures are CSS selectors whose presence strongly indicates the
// page is served by the target ATS. Matching any one accepts the candidate.
var markupSignatures = []string{
	"script[src*='avature']",
	"link[href*='avature']",
	"meta[name='generator'][content*='Avature']",
	"a[href*='SearchJobs']",
	"a[href*='JobDetail']",
	"[class*='jobList']",
}

// headerSignatures are response header values that identify the platform.
var headerSignatures = []string{"avature"}

// Validator confirms that candidate hostnames genuinely run the target ATS.
// Bias is toward precision: a weak or ambiguous match is rejected, because a
// false positive pollutes every downstream extraction stage.
type Validator struct {
	client  *fetch.Client
	verbose bool
	now     func() time.Time

	// probeURLs builds the candidate URLs to test for a hostname; tests
	// override it to point at local servers.
	probeURLs func(hostname string) []string
}

// NewValidator creates a validator over the shared fetch client.
func NewValidator(client *fetch.Client, verbose bool) *Validator {
	return &Validator{
		client:    client,
		verbose:   verbose,
		now:       time.Now,
		probeURLs: CareerPathCandidates,
	}
}

// Validate probes the candidate's likely career paths and accepts it only if
// at least one strong platform signature matches. Network failure is
// rejection, not an error to retry: an unreachable host cannot be a valid
// career site for this run.
func (v *Validator) Validate(ctx context.Context, candidate types.CandidateSite) (*types.ValidatedSite, error) {
	for _, probeURL := range v.probeURLs(candidate.Hostname) {
		result, err := v.client.Fetch(ctx, probeURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("validation canceled: %w", ctx.Err())
			}
			if v.verbose {
				log.Printf("[VERBOSE] probe %s failed: %v", probeURL, err)
			}
			continue
		}

		if v.matchesSignature(result) {
			return &types.ValidatedSite{
				Hostname:     candidate.Hostname,
				CareerHubURL: probeURL,
				ConfirmedAt:  v.now(),
			}, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", candidate.Hostname, ErrNotValidated)
}

func (v *Validator) matchesSignature(result *fetch.Result) bool {
	for key, values := range result.Header {
		lowerKey := strings.ToLower(key)
		if lowerKey != "server" && lowerKey != "x-powered-by" {
			continue
		}
		for _, value := range values {
			for _, sig := range headerSignatures {
				if strings.Contains(strings.ToLower(value), sig) {
					return true
				}
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Body))
	if err != nil {
		return false
	}
	for _, selector := range markupSignatures {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}
	return false
}
