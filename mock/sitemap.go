package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of docsearch.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error) {
	return s.DiscoverURLsFn(ctx, feedURL, filter)
}

var _ docsearch.Prober = (*Prober)(nil)

// Prober is a mock implementation of docsearch.Prober.
type Prober struct {
	ExistsFn func(ctx context.Context, url string) (bool, error)
}

func (p *Prober) Exists(ctx context.Context, url string) (bool, error) {
	return p.ExistsFn(ctx, url)
}

var _ docsearch.CrawlPolicy = (*CrawlPolicy)(nil)

// CrawlPolicy is a mock implementation of docsearch.CrawlPolicy.
type CrawlPolicy struct {
	AllowedFn func(url string) bool
}

func (p *CrawlPolicy) Allowed(url string) bool {
	return p.AllowedFn(url)
}
