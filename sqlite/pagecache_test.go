package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCache(t *testing.T) {
	t.Parallel()

	page := &docsearch.PageRecord{
		URL:          "https://developer.hashicorp.com/vault/docs/concepts/seal",
		Product:      "vault",
		LastModified: "2024-01-15",
		Title:        "Seal Concepts",
		Content:      "# Seal Concepts\n\n## Shamir\n\nBody.",
		Sections: []docsearch.Section{
			{Level: 1, Title: "Seal Concepts", Anchor: "seal-concepts", Offset: 0},
			{Level: 2, Title: "Shamir", Anchor: "shamir", Offset: 17},
		},
	}

	t.Run("put and get round trip", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, page))

		got, err := cache.Get(ctx, page.URL, "2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, page, got)
	})

	t.Run("miss returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)

		_, err := cache.Get(context.Background(), "https://developer.hashicorp.com/vault/docs/missing", "")
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("stale lastmod returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, page))

		_, err := cache.Get(ctx, page.URL, "2024-06-01")
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("empty lastmod accepts any cached entry", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, page))

		got, err := cache.Get(ctx, page.URL, "")
		require.NoError(t, err)
		assert.Equal(t, page.Content, got.Content)
	})

	t.Run("put replaces previous entry", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)
		ctx := context.Background()

		require.NoError(t, cache.Put(ctx, page))

		updated := *page
		updated.LastModified = "2024-06-01"
		updated.Content = "# Seal Concepts\n\nRevised."
		updated.Sections = nil
		require.NoError(t, cache.Put(ctx, &updated))

		got, err := cache.Get(ctx, page.URL, "2024-06-01")
		require.NoError(t, err)
		assert.Equal(t, "# Seal Concepts\n\nRevised.", got.Content)
	})

	t.Run("rejects invalid page", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		cache := sqlite.NewPageCache(db)

		err := cache.Put(context.Background(), &docsearch.PageRecord{URL: "https://example.com"})
		require.Error(t, err)
		assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	})
}
