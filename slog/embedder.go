package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docsearch"
)

// Ensure LoggingEmbedder implements docsearch.Embedder.
var _ docsearch.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with debug logging.
type LoggingEmbedder struct {
	next   docsearch.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next docsearch.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

// EmbedBatch delegates to the wrapped embedder and logs the operation.
func (e *LoggingEmbedder) EmbedBatch(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		e.logger.Info("embed batch",
			"count", len(texts),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped embedder.
func (e *LoggingEmbedder) Dimensions() int {
	return e.next.Dimensions()
}
