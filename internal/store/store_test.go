package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobharvest/internal/types"
)

func record(sourceURL, title string) types.JobRecord {
	return types.JobRecord{
		JobTitle:       title,
		JobDescription: "A role on the team.",
		ApplicationURL: sourceURL,
		SourceSite:     "careers.acme.avature.net",
		SourceURL:      sourceURL,
		ExtractedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestCommitAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	stats, err := s.Commit([]types.JobRecord{
		record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer"),
		record("https://careers.acme.avature.net/careers/JobDetail/2", "Designer"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 0, stats.Merged)
	assert.Equal(t, 2, stats.Total)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Engineer", records[0].JobTitle)
}

func TestCommitDeduplicatesByCanonicalURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	// Same posting reached through a tracking-decorated and a trailing-slash
	// variant of the same URL.
	stats, err := s.Commit([]types.JobRecord{
		record("https://careers.acme.avature.net/careers/JobDetail/1?utm_source=feed", "Engineer"),
		record("https://careers.acme.avature.net/careers/JobDetail/1/", "Engineer"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 1, stats.Total)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://careers.acme.avature.net/careers/JobDetail/1", records[0].SourceURL)
}

func TestCommitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	batch := []types.JobRecord{record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer")}
	_, err := s.Commit(batch)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Commit(batch)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCommitMergeFillsMissingMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	withoutLocation := record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer")
	_, err := s.Commit([]types.JobRecord{withoutLocation})
	require.NoError(t, err)

	withLocation := record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer (updated)")
	withLocation.Metadata = map[string]any{"location": "Berlin"}
	_, err = s.Commit([]types.JobRecord{withLocation})
	require.NoError(t, err)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	// Missing field filled in, existing field kept under first-seen-wins.
	assert.Equal(t, "Berlin", records[0].Metadata["location"])
	assert.Equal(t, "Engineer", records[0].JobTitle)
}

func TestCommitLastWriteWinsPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeLastWriteWins, false)

	_, err := s.Commit([]types.JobRecord{record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer")})
	require.NoError(t, err)
	_, err = s.Commit([]types.JobRecord{record("https://careers.acme.avature.net/careers/JobDetail/1", "Staff Engineer")})
	require.NoError(t, err)

	records, err := s.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Staff Engineer", records[0].JobTitle)
}

func TestCommitInvalidRecordLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	_, err := s.Commit([]types.JobRecord{record("https://careers.acme.avature.net/careers/JobDetail/1", "Engineer")})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	invalid := record("https://careers.acme.avature.net/careers/JobDetail/2", "")
	_, err = s.Commit([]types.JobRecord{invalid})
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// No stray temp files left behind after the failed commit.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "jobs.json"), types.MergeFirstSeenWins, false)
	records, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommitEmptyBatchWritesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	s := NewStore(path, types.MergeFirstSeenWins, false)

	stats, err := s.Commit(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
