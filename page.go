package docsearch

import "context"

// PageRecord represents a fetched and extracted documentation page.
type PageRecord struct {
	URL          string    `json:"url"`
	Product      string    `json:"product"`
	LastModified string    `json:"lastModified,omitempty"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content"` // Markdown with inline heading markers
	Sections     []Section `json:"sections,omitempty"`
}

// Validate returns an error if the page contains invalid fields.
func (p *PageRecord) Validate() error {
	if p.URL == "" {
		return Errorf(EINVALID, "page URL required")
	}
	if p.Content == "" {
		return Errorf(EINVALID, "page content required")
	}
	return nil
}

// Fetcher retrieves raw HTML from URLs.
type Fetcher interface {
	// Fetch retrieves the HTML content from the given URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases client resources.
	Close() error
}

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, scripts) has been removed.
	ContentHTML string

	// Headings lists the content headings with their anchor ids, in
	// document order. May be empty for extractors that don't track ids.
	Headings []Heading
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// Returns an error with code EINVALID when no usable content is found.
	Extract(html string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown.
// Tables become row/column markup with header cells preserved; code blocks
// are fenced verbatim; runs of three or more blank lines collapse to one.
type Converter interface {
	Convert(html string) (string, error)
}

// CrawlPolicy decides whether a URL may be fetched.
type CrawlPolicy interface {
	// Allowed reports whether fetching the URL is permitted. An explicit
	// allow-list of path prefixes bypasses the site's published crawl
	// rules; everything else defers to them.
	Allowed(url string) bool
}

// PageCache persists extracted pages keyed by a hash of their URL.
type PageCache interface {
	// Get returns the cached page for the URL. A hit is only honored when
	// the stored LastModified matches lastModified (if non-empty);
	// otherwise the entry is stale. Returns ENOTFOUND on miss or stale.
	Get(ctx context.Context, url string, lastModified string) (*PageRecord, error)

	// Put stores the page, replacing any previous entry for its URL.
	Put(ctx context.Context, page *PageRecord) error
}
