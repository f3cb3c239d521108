// Package store persists harvested job records as a JSON document. Records
// are keyed by canonical source URL, merged on conflict, validated against
// the output schema, and written atomically so a failed run never leaves a
// truncated or invalid file behind.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/schemas"
	"github.com/jonathan/jobharvest/internal/types"
)

// Error wraps a failure to read or write the output document.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("store %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CommitStats summarizes one commit.
type CommitStats struct {
	Added  int
	Merged int
	Total  int
}

// Store reads and writes the job records document at a fixed path.
type Store struct {
	path    string
	policy  types.MergePolicy
	verbose bool
}

// NewStore creates a store for the document at path. An empty policy
// defaults to first-seen-wins.
func NewStore(path string, policy types.MergePolicy, verbose bool) *Store {
	if policy == "" {
		policy = types.MergeFirstSeenWins
	}
	return &Store{path: path, policy: policy, verbose: verbose}
}

// Load reads the existing document. A missing file is an empty document,
// not an error.
func (s *Store) Load() ([]types.JobRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &Error{Path: s.path, Message: "reading output file", Cause: err}
	}

	var records []types.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Error{Path: s.path, Message: "parsing output file", Cause: err}
	}
	return records, nil
}

// Commit folds incoming records into the existing document and writes the
// result. Committing the same batch twice leaves the document unchanged.
func (s *Store) Commit(incoming []types.JobRecord) (*CommitStats, error) {
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	byURL := make(map[string]*types.JobRecord, len(existing)+len(incoming))
	order := make([]string, 0, len(existing)+len(incoming))
	for i := range existing {
		key := canonicalKey(existing[i].SourceURL)
		record := existing[i]
		byURL[key] = &record
		order = append(order, key)
	}

	stats := &CommitStats{}
	for i := range incoming {
		key := canonicalKey(incoming[i].SourceURL)
		if current, ok := byURL[key]; ok {
			current.Merge(&incoming[i], s.policy)
			stats.Merged++
			continue
		}
		record := incoming[i]
		record.SourceURL = key
		byURL[key] = &record
		order = append(order, key)
		stats.Added++
	}

	sort.Strings(order)
	merged := make([]types.JobRecord, 0, len(order))
	for _, key := range order {
		merged = append(merged, *byURL[key])
	}
	stats.Total = len(merged)

	if err := s.write(merged); err != nil {
		return nil, err
	}
	if s.verbose {
		log.Printf("[VERBOSE] committed %d records to %s (%d added, %d merged)", stats.Total, s.path, stats.Added, stats.Merged)
	}
	return stats, nil
}

// write validates and atomically replaces the document. The temp file lives
// in the target directory so the rename stays on one filesystem.
func (s *Store) write(records []types.JobRecord) error {
	if records == nil {
		records = []types.JobRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &Error{Path: s.path, Message: "encoding records", Cause: err}
	}
	data = append(data, '\n')

	if err := schemas.ValidateJobsDocument(data); err != nil {
		return &Error{Path: s.path, Message: "output failed schema validation", Cause: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Path: s.path, Message: "creating output directory", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &Error{Path: s.path, Message: "creating temp file", Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Path: s.path, Message: "writing temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Path: s.path, Message: "closing temp file", Cause: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &Error{Path: s.path, Message: "replacing output file", Cause: err}
	}
	return nil
}

// canonicalKey normalizes a source URL for dedup. URLs that fail to
// normalize key on their raw form rather than being dropped.
func canonicalKey(rawURL string) string {
	normalized, err := links.Normalize(rawURL)
	if err != nil {
		return rawURL
	}
	return normalized
}
