package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReranker_Rerank_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty query is rejected", func(t *testing.T) {
		t.Parallel()

		r := gemini.NewReranker(nil)
		_, err := r.Rerank(context.Background(), "", []string{"doc"}, 5)

		require.Error(t, err)
		assert.Equal(t, docsearch.EINVALID, docsearch.ErrorCode(err))
	})

	t.Run("no documents returns nothing without a model call", func(t *testing.T) {
		t.Parallel()

		r := gemini.NewReranker(nil) // nil client ok, no call happens
		results, err := r.Rerank(context.Background(), "unseal vault", nil, 5)

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestReranker_Available(t *testing.T) {
	t.Parallel()

	assert.False(t, gemini.NewReranker(nil).Available(context.Background()))
}

func TestParseRerankResponse(t *testing.T) {
	t.Parallel()

	t.Run("parses plain JSON array", func(t *testing.T) {
		t.Parallel()

		results, err := gemini.ParseRerankResponse(`[{"index": 1, "score": 0.9}, {"index": 0, "score": 0.4}]`, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Index)
		assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	})

	t.Run("tolerates code fences and prose", func(t *testing.T) {
		t.Parallel()

		text := "Here are the scores:\n```json\n[{\"index\": 0, \"score\": 0.7}]\n```\n"
		results, err := gemini.ParseRerankResponse(text, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0, results[0].Index)
	})

	t.Run("drops out-of-range and duplicate indexes", func(t *testing.T) {
		t.Parallel()

		text := `[{"index": 0, "score": 0.9}, {"index": 0, "score": 0.8}, {"index": 7, "score": 0.5}]`
		results, err := gemini.ParseRerankResponse(text, 2)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 0, results[0].Index)
	})

	t.Run("errors when no array present", func(t *testing.T) {
		t.Parallel()

		_, err := gemini.ParseRerankResponse("I cannot score these documents.", 3)
		require.Error(t, err)
		assert.Equal(t, docsearch.EINTERNAL, docsearch.ErrorCode(err))
	})
}
