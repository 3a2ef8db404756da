// Package http provides HTTP-backed implementations of docsearch services:
// sitemap feed discovery, page fetching, URL probing, and the robots.txt
// crawl policy.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docsearch"
)

// Ensure SitemapService implements docsearch.SitemapService.
var _ docsearch.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URL records from a sitemap feed via HTTP.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, userAgent string) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client, userAgent: userAgent}
}

// DiscoverURLs fetches and parses the sitemap feed. Sitemap indexes are
// resolved recursively. URLs are canonicalized (fragments stripped) and
// deduplicated; entries under /partials/ are dropped since they are page
// fragments, not standalone documents.
func (s *SitemapService) DiscoverURLs(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	seenSitemaps := make(map[string]bool)

	records, err := s.processSitemap(ctx, feedURL, seenSitemaps)
	if err != nil {
		return nil, err
	}

	out := make([]docsearch.URLRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(rec.URL, "/partials/") {
			continue
		}
		if seen[rec.URL] {
			continue
		}
		seen[rec.URL] = true
		if !filter.Match(rec.URL) {
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

// processSitemap fetches and parses one sitemap, handling both urlset and
// sitemapindex roots.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]docsearch.URLRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap XML")
	}

	if root.Tag == "sitemapindex" {
		return s.processSitemapIndex(ctx, root, seen)
	}

	return parseURLSet(root), nil
}

func (s *SitemapService) processSitemapIndex(ctx context.Context, root *etree.Element, seen map[string]bool) ([]docsearch.URLRecord, error) {
	var all []docsearch.URLRecord

	for _, sitemap := range root.SelectElements("sitemap") {
		loc := sitemap.SelectElement("loc")
		if loc == nil {
			continue
		}
		sitemapURL := strings.TrimSpace(loc.Text())
		if sitemapURL == "" {
			continue
		}

		records, err := s.processSitemap(ctx, sitemapURL, seen)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}

	return all, nil
}

// parseURLSet extracts URL records from a <urlset> element, capturing each
// entry's lastmod when present.
func parseURLSet(root *etree.Element) []docsearch.URLRecord {
	var records []docsearch.URLRecord
	for _, urlEl := range root.SelectElements("url") {
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		u := strings.TrimSpace(loc.Text())
		if u == "" {
			continue
		}
		u = docsearch.CanonicalizeURL(u)

		var lastmod string
		if lm := urlEl.SelectElement("lastmod"); lm != nil {
			lastmod = strings.TrimSpace(lm.Text())
		}

		records = append(records, docsearch.URLRecord{
			URL:          u,
			Product:      docsearch.ProductFromURL(u),
			LastModified: lastmod,
		})
	}
	return records
}

// fetchURL fetches a URL and returns the response body.
func (s *SitemapService) fetchURL(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	return resp.Body, nil
}
