// Package links provides URL canonicalization and pattern-based link classification
// for career-site crawling.
package links

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/jobharvest/internal/types"
)

// trackingParams are query parameters stripped during normalization. They carry
// analytics state, not page identity, and would otherwise break dedup.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"gclid":        true,
	"fbclid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"source":       true,
}

// NormalizeError reports a URL that could not be canonicalized.
type NormalizeError struct {
	URL     string
	Message string
	Cause   error
}

func (e *NormalizeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("normalize error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("normalize error for %s: %s", e.URL, e.Message)
}

func (e *NormalizeError) Unwrap() error {
	return e.Cause
}

// Normalize canonicalizes a URL into the stable form used as dedup key:
// lowercased scheme and host, no fragment, no tracking parameters, no
// trailing slash. Two URLs that differ only in those aspects normalize
// to the same string.
func Normalize(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &NormalizeError{URL: raw, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", &NormalizeError{URL: raw, Message: "URL must be absolute with scheme and host"}
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for param := range query {
			if trackingParams[strings.ToLower(param)] {
				query.Del(param)
			}
		}
		parsed.RawQuery = query.Encode()
	}

	// Trim the slash on the path itself so URLs with a query or fragment
	// normalize the same as bare ones.
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	parsed.RawPath = strings.TrimSuffix(parsed.RawPath, "/")

	return parsed.String(), nil
}

// Resolve makes href absolute against base and normalizes the result.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", &NormalizeError{URL: href, Message: "invalid href", Cause: err}
	}
	return Normalize(base.ResolveReference(ref).String())
}

// feedPathSuffixes are URL paths that advertise an RSS/Atom feed.
var feedPathSuffixes = []string{"/rss", "/feed", "/rss.xml", "/atom.xml"}

// Classify buckets a normalized URL into feed, listing, or detail. URLs that
// match no known pattern return ok=false and are discarded by callers; the
// pipeline only acts on classified links.
func Classify(normalized string) (types.LinkKind, bool) {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(strings.TrimSuffix(parsed.Path, "/"))
	query := strings.ToLower(parsed.RawQuery)

	for _, suffix := range feedPathSuffixes {
		if strings.HasSuffix(path, suffix) {
			return types.KindFeed, true
		}
	}

	if IsDetailPath(path, query) {
		return types.KindDetail, true
	}
	if isListingPath(path) {
		return types.KindListing, true
	}
	return "", false
}

// IsDetailPath reports whether a path/query pair points at a single job
// posting. Avature detail URLs use JobDetail, a jobId query parameter, a
// numeric id segment under SearchJobs or careers, or a careers/jobs path
// ending in a numeric id (shallow forms like /jobs/101 included).
func IsDetailPath(path, query string) bool {
	if strings.Contains(path, "jobdetail") {
		return true
	}
	if strings.Contains(query, "jobid=") {
		return true
	}
	segments := nonEmptySegments(path)
	if strings.Contains(path, "searchjobs") && len(segments) >= 3 {
		return true
	}
	if strings.Contains(path, "careers") || strings.Contains(path, "jobs") {
		if len(segments) >= 2 && isNumericSegment(segments[len(segments)-1]) {
			return true
		}
		if len(segments) >= 3 && hasNumericSegment(segments) {
			return true
		}
	}
	return false
}

// isListingPath matches search/browse views: SearchJobs without a detail
// marker, or shallow /careers and /jobs paths.
func isListingPath(path string) bool {
	if path == "" {
		return false
	}
	if strings.Contains(path, "searchjobs") && !strings.Contains(path, "jobdetail") {
		return true
	}
	segments := nonEmptySegments(path)
	if len(segments) <= 2 && (strings.Contains(path, "careers") || strings.Contains(path, "jobs")) {
		return true
	}
	return false
}

// IsCareerHub reports whether a URL looks like a career hub root: the site
// base or a shallow careers/jobs path worth probing for feeds and listings.
func IsCareerHub(normalized string) bool {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	path := strings.ToLower(strings.TrimSuffix(parsed.Path, "/"))
	if path == "" {
		return true
	}
	segments := nonEmptySegments(path)
	return len(segments) <= 2 && (strings.Contains(path, "careers") || strings.Contains(path, "jobs"))
}

func nonEmptySegments(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func hasNumericSegment(segments []string) bool {
	for _, seg := range segments {
		if isNumericSegment(seg) {
			return true
		}
	}
	return false
}

func isNumericSegment(seg string) bool {
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
