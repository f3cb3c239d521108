package harvest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jonathan/jobharvest/internal/links"
	"github.com/jonathan/jobharvest/internal/types"
)

// nonJobPathPatterns flag feed entries that are vendor blog or marketing
// content sharing the careers feed.
var nonJobPathPatterns = []string{
	"/blogs/",
	"/blog/",
	"avatureupfront",
	"hr-trends",
	"test-cookies",
}

// nonJobTitlePrefixes flag entries whose titles mark them as editorial
// content rather than postings.
var nonJobTitlePrefixes = []string{
	"company news",
	"press release",
	"blog:",
	"webinar",
	"event:",
}

// ParseFeed parses a raw RSS/Atom document.
func ParseFeed(body string) (*gofeed.Feed, error) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("feed parse: %w", err)
	}
	return feed, nil
}

// ClassifyEntries separates genuine job postings from blog/marketing entries
// in a feed and returns the surviving items as detail links. The heuristic is
// deliberately conservative: an ambiguous entry is excluded rather than
// risking noise in the final dataset. Pure function of feed content, no I/O.
func ClassifyEntries(feed *gofeed.Feed, sourceSite string) []types.Link {
	var detail []types.Link
	seen := make(map[string]bool)

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" && item.GUID != "" && strings.HasPrefix(item.GUID, "http") {
			link = item.GUID
		}
		if link == "" {
			continue
		}
		if !IsJobPosting(link, item.Title) {
			continue
		}
		normalized, err := links.Normalize(link)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true
		detail = append(detail, types.Link{
			URL:        normalized,
			Kind:       types.KindDetail,
			SourceSite: sourceSite,
		})
	}
	return detail
}

// IsJobPosting reports whether a feed entry looks like an actual job posting
// rather than vendor blog, marketing, or any other non-job content.
func IsJobPosting(entryURL, title string) bool {
	parsed, err := url.Parse(entryURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	path := strings.ToLower(parsed.Path)
	query := strings.ToLower(parsed.RawQuery)
	lowerTitle := strings.ToLower(title)

	for _, pattern := range nonJobPathPatterns {
		if strings.Contains(path, pattern) || strings.Contains(lowerTitle, pattern) {
			return false
		}
	}
	for _, prefix := range nonJobTitlePrefixes {
		if strings.HasPrefix(lowerTitle, prefix) {
			return false
		}
	}

	// The vendor's own domain carries editorial content; only clearly
	// job-shaped paths survive there.
	if host == "avature.net" || host == "www.avature.net" {
		return strings.Contains(path, "/careers/") || strings.Contains(path, "/jobs/") ||
			strings.Contains(path, "searchjobs")
	}

	jobLikePath := strings.Contains(path, "careers") || strings.Contains(path, "jobs") ||
		strings.Contains(path, "searchjobs") || strings.Contains(query, "jobid=")
	return jobLikePath
}
