//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// FailureKind buckets a site-level failure for run reporting.
type FailureKind string

const (
	// FailureTransient covers network errors that survived the retry budget
	FailureTransient FailureKind = "transient_network"
	// FailurePermanent covers terminal HTTP errors and unusable responses
	FailurePermanent FailureKind = "permanent"
	// FailureParseIncomplete covers pages no parser could fully read
	FailureParseIncomplete FailureKind = "parse_incomplete"
	// FailureRejected covers candidate sites that failed validation
	FailureRejected FailureKind = "rejected"
)

// SiteFailure records one failure attributed to a site during a run.
type SiteFailure struct {
	Site   string      `json:"site"`
	Stage  string      `json:"stage"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

// RunSummary aggregates what one pipeline run did. A run that hits failures
// on some sites still completes and reports them here.
type RunSummary struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
	SitesProcessed   int           `json:"sites_processed"`
	SitesFailed      int           `json:"sites_failed"`
	LinksFound       int           `json:"links_found"`
	RecordsExtracted int           `json:"records_extracted"`
	RecordsAdded     int           `json:"records_added"`
	RecordsMerged    int           `json:"records_merged"`
	Failures         []SiteFailure `json:"failures,omitempty"`
}

// Duration is the wall-clock span of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// CountByKind tallies failures of one kind.
func (s *RunSummary) CountByKind(kind FailureKind) int {
	n := 0
	for _, f := range s.Failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}
