package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataStore(t *testing.T) {
	t.Parallel()

	t.Run("round trips metadata", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.json")
		store := fs.NewMetadataStore(path)

		meta := &docsearch.IndexMetadata{
			Version:            docsearch.IndexVersion,
			LastUpdate:         time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			PageCount:          42,
			ModelName:          "gemini-embedding-001",
			ChunkSizeTokens:    800,
			ChunkOverlapTokens: 120,
		}
		require.NoError(t, store.SaveMetadata(meta))

		got, err := store.LoadMetadata()
		require.NoError(t, err)
		assert.Equal(t, meta, got)
	})

	t.Run("missing file returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		store := fs.NewMetadataStore(filepath.Join(t.TempDir(), "missing.json"))
		_, err := store.LoadMetadata()
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("corrupt file returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		store := fs.NewMetadataStore(path)
		_, err := store.LoadMetadata()
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", "metadata.json")
		store := fs.NewMetadataStore(path)
		require.NoError(t, store.SaveMetadata(&docsearch.IndexMetadata{Version: "x"}))

		_, err := os.Stat(path)
		require.NoError(t, err)
	})

	t.Run("save replaces previous content", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "metadata.json")
		store := fs.NewMetadataStore(path)
		require.NoError(t, store.SaveMetadata(&docsearch.IndexMetadata{Version: "old", PageCount: 1}))
		require.NoError(t, store.SaveMetadata(&docsearch.IndexMetadata{Version: "new", PageCount: 2}))

		got, err := store.LoadMetadata()
		require.NoError(t, err)
		assert.Equal(t, "new", got.Version)
		assert.Equal(t, 2, got.PageCount)
	})
}

func TestProgressStore(t *testing.T) {
	t.Parallel()

	t.Run("round trips progress", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "progress.json")
		store := fs.NewProgressStore(path)

		p := &docsearch.EmbeddingProgress{
			Completed: 20000,
			Total:     55000,
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.SaveProgress(p))

		got, err := store.LoadProgress()
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("missing file returns ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		store := fs.NewProgressStore(filepath.Join(t.TempDir(), "missing.json"))
		_, err := store.LoadProgress()
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("clear removes the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "progress.json")
		store := fs.NewProgressStore(path)
		require.NoError(t, store.SaveProgress(&docsearch.EmbeddingProgress{Completed: 1, Total: 2}))
		require.NoError(t, store.Clear())

		_, err := store.LoadProgress()
		require.Error(t, err)
		assert.Equal(t, docsearch.ENOTFOUND, docsearch.ErrorCode(err))
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		t.Parallel()

		store := fs.NewProgressStore(filepath.Join(t.TempDir(), "progress.json"))
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())
	})
}
