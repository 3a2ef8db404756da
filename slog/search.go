package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsearch"
)

// Ensure LoggingSearchService implements docsearch.SearchService.
var _ docsearch.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with debug logging.
type LoggingSearchService struct {
	next   docsearch.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next docsearch.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the operation.
func (s *LoggingSearchService) Search(ctx context.Context, query string, opts docsearch.SearchOptions) (results []docsearch.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", query,
			"product", opts.Product,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, opts)
}
