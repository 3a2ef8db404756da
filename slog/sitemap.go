// Package slog provides logging decorators for domain services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsearch"
)

// Ensure LoggingSitemapService implements docsearch.SitemapService.
var _ docsearch.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with debug logging.
type LoggingSitemapService struct {
	next   docsearch.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next docsearch.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the operation.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, feedURL string, filter *docsearch.URLFilter) (records []docsearch.URLRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Info("sitemap discovery",
			"url", feedURL,
			"count", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, feedURL, filter)
}
