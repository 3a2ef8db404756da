package docsearch

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// URLRecord represents a discovered documentation page URL.
// Uniqueness key is URL (canonical, fragment stripped).
type URLRecord struct {
	URL          string `json:"url"`
	Product      string `json:"product"`
	LastModified string `json:"lastModified,omitempty"`
}

// Validate returns an error if the record contains invalid fields.
func (r *URLRecord) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "url record URL required")
	}
	return nil
}

// CanonicalizeURL strips any fragment from a URL so that two URLs differing
// only by anchor resolve to the same page. The operation is idempotent.
// Unparseable input is returned unchanged.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexByte(rawURL, '#'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// ProductFromURL infers the product name from the first path segment of a
// documentation URL. Returns "unknown" when the path is empty.
func ProductFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "unknown"
	}
	return parts[0]
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// SitemapService discovers URL records from a sitemap-style feed.
type SitemapService interface {
	// DiscoverURLs fetches and parses the feed, returning one record per
	// <url> entry with its lastmod when present. URLs are canonicalized
	// and deduplicated. A failure to reach the feed is an error; the
	// caller decides whether that is fatal.
	DiscoverURLs(ctx context.Context, feedURL string, filter *URLFilter) ([]URLRecord, error)
}

// Prober issues lightweight existence checks against URLs.
type Prober interface {
	// Exists reports whether the URL responds with 200 OK to a HEAD
	// request, following redirects.
	Exists(ctx context.Context, url string) (bool, error)
}

// VersionProbe describes a per-product set of version-numbered URL templates
// probed during discovery. Pattern contains a single %d verb substituted with
// each minor version in [MinorFrom, MinorTo).
type VersionProbe struct {
	Product   string
	Pattern   string
	MinorFrom int
	MinorTo   int
}

// URLStore persists the discovered URL set so a later run can resume
// discovery without re-crawling.
type URLStore interface {
	// SaveURLList replaces the stored URL set.
	SaveURLList(ctx context.Context, records []URLRecord) error

	// LoadURLList returns the stored URL set.
	// Returns ENOTFOUND if no set has been saved.
	LoadURLList(ctx context.Context) ([]URLRecord, error)
}
