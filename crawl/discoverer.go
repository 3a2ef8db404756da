// Package crawl orchestrates the offline half of the pipeline: discovering
// documentation URLs from a sitemap feed plus auxiliary sources, and
// fetching, extracting and caching page content with a bounded worker pool.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/goquery"
)

// Aux crawl limits.
const (
	// frontierExpectedURLs sizes the Bloom filter for deduplication.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is acceptable for a dedup-only filter.
	frontierFalsePositiveRate = 0.01
	// defaultMaxAuxPages bounds the auxiliary crawl.
	defaultMaxAuxPages = 50
)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// Discoverer assembles the full URL set for an index build: the sitemap
// feed, outbound links of auxiliary index pages, and version-numbered URL
// templates confirmed by existence probes.
type Discoverer struct {
	Sitemaps docsearch.SitemapService
	Fetcher  docsearch.Fetcher
	Prober   docsearch.Prober

	// Store, when set, persists the discovered set so a later run can
	// resume without re-discovering.
	Store docsearch.URLStore

	// AuxPages are index pages whose same-host outbound links join the
	// set. Links under an aux page's own path are followed recursively.
	AuxPages []string

	// Probes are per-product version URL templates checked with HEAD
	// requests instead of link following.
	Probes []docsearch.VersionProbe

	RateLimiter *DomainLimiter
	RetryDelays []time.Duration
	MaxAuxPages int
	Logf        LogFunc
}

// Discover runs all discovery sources and returns the deduplicated record
// set. A failure to reach the feed is fatal; auxiliary page and probe
// failures are logged and skipped.
func (d *Discoverer) Discover(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error) {
	records, err := d.Sitemaps.DiscoverURLs(ctx, feedURL, filter)
	if err != nil {
		return nil, fmt.Errorf("sitemap discovery: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.URL] = true
	}

	for _, aux := range d.crawlAuxPages(ctx, filter) {
		if seen[aux] {
			continue
		}
		seen[aux] = true
		records = append(records, docsearch.URLRecord{
			URL:     aux,
			Product: docsearch.ProductFromURL(aux),
		})
	}

	for _, probed := range d.probeVersionURLs(ctx) {
		if seen[probed.URL] {
			continue
		}
		seen[probed.URL] = true
		records = append(records, probed)
	}

	if d.Store != nil {
		if err := d.Store.SaveURLList(ctx, records); err != nil {
			return nil, fmt.Errorf("persist url list: %w", err)
		}
	}

	return records, nil
}

// crawlAuxPages fetches each auxiliary page, collects its same-host links,
// and follows links that stay under the aux page's path. Every failure is
// per-page: log, skip, continue.
func (d *Discoverer) crawlAuxPages(ctx context.Context, filter *docsearch.URLFilter) []string {
	if len(d.AuxPages) == 0 || d.Fetcher == nil {
		return nil
	}

	maxPages := d.MaxAuxPages
	if maxPages <= 0 {
		maxPages = defaultMaxAuxPages
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	prefixes := make(map[string]string, len(d.AuxPages))
	for _, aux := range d.AuxPages {
		if u, err := url.Parse(aux); err == nil {
			prefixes[u.Host] = u.Path
		}
		frontier.Push(aux)
	}

	var found []string
	processed := 0

	for {
		pageURL, ok := frontier.Pop()
		if !ok || processed >= maxPages || ctx.Err() != nil {
			break
		}
		processed++

		if err := d.wait(ctx, pageURL); err != nil {
			break
		}

		html, err := fetchWithRetry(ctx, pageURL, d.Fetcher.Fetch, d.RetryDelays)
		if err != nil {
			d.logf("aux page %s: %v", pageURL, err)
			continue
		}

		links, err := goquery.ExtractLinks(html, pageURL, "")
		if err != nil {
			d.logf("aux page %s: %v", pageURL, err)
			continue
		}

		for _, link := range links {
			canonical := docsearch.CanonicalizeURL(link)
			if strings.Contains(canonical, "/partials/") {
				continue
			}
			if !filter.Match(canonical) {
				continue
			}

			// Only links under an aux page's own path are re-crawled.
			if u, err := url.Parse(canonical); err == nil {
				if prefix, ok := prefixes[u.Host]; ok && prefix != "" && strings.HasPrefix(u.Path, prefix) {
					frontier.Push(canonical)
				}
			}

			found = append(found, canonical)
		}
	}

	return dedupe(found)
}

// probeVersionURLs expands each probe template over its version range and
// keeps the URLs that exist.
func (d *Discoverer) probeVersionURLs(ctx context.Context) []docsearch.URLRecord {
	if len(d.Probes) == 0 || d.Prober == nil {
		return nil
	}

	var records []docsearch.URLRecord
	for _, probe := range d.Probes {
		for minor := probe.MinorFrom; minor < probe.MinorTo; minor++ {
			if ctx.Err() != nil {
				return records
			}

			candidate := fmt.Sprintf(probe.Pattern, minor)
			if err := d.wait(ctx, candidate); err != nil {
				return records
			}

			exists, err := d.Prober.Exists(ctx, candidate)
			if err != nil {
				d.logf("probe %s: %v", candidate, err)
				continue
			}
			if !exists {
				continue
			}

			records = append(records, docsearch.URLRecord{
				URL:     docsearch.CanonicalizeURL(candidate),
				Product: probe.Product,
			})
		}
	}

	return records
}

func (d *Discoverer) wait(ctx context.Context, rawURL string) error {
	if d.RateLimiter == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return d.RateLimiter.Wait(ctx, u.Host)
}

func (d *Discoverer) logf(format string, args ...any) {
	if d.Logf != nil {
		d.Logf(format, args...)
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
