//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// JobRecord is a structured job posting extracted from a detail page or feed entry.
// A record is uniquely identified by its canonicalized SourceURL.
type JobRecord struct {
	JobTitle       string         `json:"job_title"`
	JobDescription string         `json:"job_description"`
	ApplicationURL string         `json:"application_url"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	SourceSite     string         `json:"source_site"`
	SourceURL      string         `json:"source_url"`
	ExtractedAt    time.Time      `json:"extracted_at"`
}

// MergePolicy selects the winner when two records for the same canonical URL
// both carry a non-empty value for the same field.
type MergePolicy string

const (
	// MergeLastWriteWins keeps the most recently merged value
	MergeLastWriteWins MergePolicy = "last_write_wins"
	// MergeFirstSeenWins keeps the value already present
	MergeFirstSeenWins MergePolicy = "first_seen_wins"
)

// Merge folds other into r according to the policy. A non-empty existing field
// is never replaced by an empty incoming one, regardless of policy. Metadata
// keys merge individually under the same rule.
func (r *JobRecord) Merge(other *JobRecord, policy MergePolicy) {
	r.JobTitle = mergeField(r.JobTitle, other.JobTitle, policy)
	r.JobDescription = mergeField(r.JobDescription, other.JobDescription, policy)
	r.ApplicationURL = mergeField(r.ApplicationURL, other.ApplicationURL, policy)
	r.SourceSite = mergeField(r.SourceSite, other.SourceSite, policy)

	if len(other.Metadata) > 0 {
		if r.Metadata == nil {
			r.Metadata = make(map[string]any, len(other.Metadata))
		}
		for k, v := range other.Metadata {
			existing, ok := r.Metadata[k]
			if !ok || isEmptyValue(existing) {
				r.Metadata[k] = v
				continue
			}
			if isEmptyValue(v) {
				continue
			}
			if policy == MergeLastWriteWins {
				r.Metadata[k] = v
			}
		}
	}

	if other.ExtractedAt.After(r.ExtractedAt) {
		r.ExtractedAt = other.ExtractedAt
	}
}

func mergeField(existing, incoming string, policy MergePolicy) string {
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	if policy == MergeFirstSeenWins {
		return existing
	}
	return incoming
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}
