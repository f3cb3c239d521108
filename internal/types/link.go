//nolint:revive // types is a standard Go package name pattern
package types

// LinkKind classifies a harvested URL by what the crawler should do with it.
type LinkKind string

const (
	// KindFeed is an RSS/Atom feed URL
	KindFeed LinkKind = "feed"
	// KindListing is a page enumerating many jobs (search/browse view)
	KindListing LinkKind = "listing"
	// KindDetail is an individual job posting page
	KindDetail LinkKind = "detail"
)

// Link is a classified, canonicalized URL harvested from a career site.
// URL must already be normalized (see links.Normalize) before a Link is
// constructed; the normalized URL is the sole dedup key.
type Link struct {
	URL        string   `json:"url"`
	Kind       LinkKind `json:"kind"`
	SourceSite string   `json:"source_site"`
}
