package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/mock"
	docslog "github.com/fwojciec/docsearch/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, nil))
}

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and duration", func(t *testing.T) {
		t.Parallel()

		buf, logger := newBufLogger()
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error) {
				return []docsearch.URLRecord{
					{URL: "https://example.com/a"},
					{URL: "https://example.com/b"},
				}, nil
			},
		}

		svc := docslog.NewLoggingSitemapService(inner, logger)
		records, err := svc.DiscoverURLs(context.Background(), "https://example.com/sitemap.xml", nil)

		require.NoError(t, err)
		assert.Len(t, records, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		buf, logger := newBufLogger()
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := docslog.NewLoggingSitemapService(inner, logger)
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com/sitemap.xml", nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), "connection failed")
	})
}

func TestLoggingSearchService_Search(t *testing.T) {
	t.Parallel()

	buf, logger := newBufLogger()
	inner := &mock.SearchService{
		SearchFn: func(ctx context.Context, query string, opts docsearch.SearchOptions) ([]docsearch.SearchResult, error) {
			return []docsearch.SearchResult{{URL: "https://example.com/a"}}, nil
		},
	}

	svc := docslog.NewLoggingSearchService(inner, logger)
	results, err := svc.Search(context.Background(), "vault seal", docsearch.SearchOptions{Product: "vault"})

	require.NoError(t, err)
	assert.Len(t, results, 1)
	output := buf.String()
	assert.Contains(t, output, "query=\"vault seal\"")
	assert.Contains(t, output, "product=vault")
	assert.Contains(t, output, "count=1")
}

func TestLoggingEmbedder_EmbedBatch(t *testing.T) {
	t.Parallel()

	buf, logger := newBufLogger()
	inner := &mock.Embedder{
		EmbedBatchFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}, {0, 1}}, nil
		},
		DimensionsFn: func() int { return 2 },
	}

	e := docslog.NewLoggingEmbedder(inner, logger)
	vectors, err := e.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 2, e.Dimensions())
	assert.Contains(t, buf.String(), "count=2")
}
