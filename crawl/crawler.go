package crawl

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docsearch"
	"golang.org/x/sync/errgroup"
)

// Crawler fetches, extracts and caches documentation pages with a bounded
// worker pool. Per-URL failures are isolated: a failed page is counted and
// skipped, never aborting the batch.
type Crawler struct {
	Fetcher   docsearch.Fetcher
	Extractor docsearch.Extractor

	// Fallback, when set, is tried when the primary extractor fails or
	// finds no content.
	Fallback docsearch.Extractor

	Converter docsearch.Converter

	// Policy gates every fetch. Nil allows everything.
	Policy docsearch.CrawlPolicy

	// Cache, when set, short-circuits fetching for pages whose stored
	// last-modified still matches the record's.
	Cache docsearch.PageCache

	RateLimiter *DomainLimiter
	Concurrency int
	RetryDelays []time.Duration

	// MaxPages caps how many records are processed. Zero means all.
	MaxPages int
}

// Result holds the outcome of a crawl batch.
type Result struct {
	Fetched int
	Cached  int
	Skipped int
	Failed  int
}

// ProgressEvent reports progress during a crawl batch.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// crawlResult holds the outcome of processing a single record.
type crawlResult struct {
	position int
	url      string
	page     *docsearch.PageRecord
	cached   bool
	skipped  bool
	err      error
}

// CrawlPages processes the records and returns the extracted pages in
// record order. Records that fail, are disallowed, or yield no content are
// omitted from the result and counted.
func (c *Crawler) CrawlPages(ctx context.Context, records []docsearch.URLRecord, progress ProgressFunc) ([]docsearch.PageRecord, *Result, error) {
	if c.MaxPages > 0 && len(records) > c.MaxPages {
		records = records[:c.MaxPages]
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	total := len(records)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	resultCh := make(chan crawlResult, total)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, record := range records {
			i, record := i, record
			g.Go(func() error {
				resultCh <- c.processRecord(gctx, i, record)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]crawlResult, total)
	for result := range resultCh {
		completed.Add(1)
		results[result.position] = result

		if progress == nil {
			continue
		}
		event := ProgressEvent{
			Completed: int(completed.Load()),
			Total:     total,
			URL:       result.url,
		}
		if result.err != nil {
			event.Type = ProgressFailed
			event.Error = result.err
		} else {
			event.Type = ProgressCompleted
		}
		progress(event)
	}

	var res Result
	pages := make([]docsearch.PageRecord, 0, total)
	for _, result := range results {
		switch {
		case result.err != nil:
			res.Failed++
		case result.skipped:
			res.Skipped++
		case result.page == nil:
			res.Skipped++
		case result.cached:
			res.Cached++
			pages = append(pages, *result.page)
		default:
			res.Fetched++
			pages = append(pages, *result.page)
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	return pages, &res, nil
}

// processRecord runs the cache/policy/fetch/extract/convert pipeline for
// one record.
func (c *Crawler) processRecord(ctx context.Context, position int, record docsearch.URLRecord) crawlResult {
	result := crawlResult{position: position, url: record.URL}

	if c.Cache != nil {
		if page, err := c.Cache.Get(ctx, record.URL, record.LastModified); err == nil {
			result.page = page
			result.cached = true
			return result
		}
	}

	if c.Policy != nil && !c.Policy.Allowed(record.URL) {
		result.skipped = true
		return result
	}

	if c.RateLimiter != nil {
		if u, err := url.Parse(record.URL); err == nil {
			if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
				result.err = err
				return result
			}
		}
	}

	html, err := fetchWithRetry(ctx, record.URL, c.Fetcher.Fetch, c.RetryDelays)
	if err != nil {
		result.err = err
		return result
	}

	extracted, err := c.extract(html)
	if err != nil {
		result.err = err
		return result
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		result.err = err
		return result
	}

	page := &docsearch.PageRecord{
		URL:          record.URL,
		Product:      record.Product,
		LastModified: record.LastModified,
		Title:        extracted.Title,
		Content:      markdown,
		Sections:     docsearch.BuildOutline(markdown, extracted.Headings),
	}

	if c.Cache != nil {
		if err := c.Cache.Put(ctx, page); err != nil {
			result.err = err
			return result
		}
	}

	result.page = page
	return result
}

func (c *Crawler) extract(html string) (*docsearch.ExtractResult, error) {
	extracted, err := c.Extractor.Extract(html)
	if err == nil && extracted.ContentHTML != "" {
		return extracted, nil
	}
	if c.Fallback != nil {
		return c.Fallback.Extract(html)
	}
	if err == nil {
		err = docsearch.Errorf(docsearch.EINVALID, "no content extracted")
	}
	return nil, err
}
