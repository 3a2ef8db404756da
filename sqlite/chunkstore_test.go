package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore(t *testing.T) {
	t.Parallel()

	parents := []docsearch.ParentChunk{
		{ID: "p1", URL: "https://developer.hashicorp.com/vault/docs/seal", Product: "vault", Content: "## Shamir\n\nLong section body.", HeadingPath: "Seal > Shamir"},
	}
	children := []docsearch.ChildChunk{
		{
			ID: "c1", ParentID: "p1",
			URL: "https://developer.hashicorp.com/vault/docs/seal", Product: "vault",
			Content: "Shamir body.", HeadingPath: "Seal > Shamir", Anchor: "shamir",
			DocType: docsearch.DocTypeConcept, TokenCount: 3,
		},
		{
			ID:  "c2",
			URL: "https://developer.hashicorp.com/vault/docs/flat", Product: "vault",
			Content: "Flat page body.", HeadingPath: "Flat",
			DocType: docsearch.DocTypeConcept, TokenCount: 4, Degenerate: true,
		},
	}

	t.Run("replace and load round trip", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)
		ctx := context.Background()

		require.NoError(t, store.ReplaceAll(ctx, parents, children))

		loaded, err := store.LoadChildren(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, children, loaded)
	})

	t.Run("replace discards previous chunk set", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)
		ctx := context.Background()

		require.NoError(t, store.ReplaceAll(ctx, parents, children))
		require.NoError(t, store.ReplaceAll(ctx, nil, children[1:]))

		loaded, err := store.LoadChildren(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "c2", loaded[0].ID)

		_, err = store.FindParent(ctx, "p1")
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("find parent by id", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)
		ctx := context.Background()

		require.NoError(t, store.ReplaceAll(ctx, parents, children))

		parent, err := store.FindParent(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, &parents[0], parent)
	})

	t.Run("missing parent returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)

		_, err := store.FindParent(context.Background(), "nope")
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("empty store returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)

		_, err := store.LoadChildren(context.Background())
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("rejects child without parent unless degenerate", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		store := sqlite.NewChunkStore(db)

		bad := []docsearch.ChildChunk{{ID: "x", URL: "https://example.com", Content: "text"}}
		err := store.ReplaceAll(context.Background(), nil, bad)
		require.Error(t, err)
		assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	})
}
