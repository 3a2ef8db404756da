package search

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.Reranker = (*TermOverlapReranker)(nil)

// TermOverlapReranker is the fast, coarse first rerank stage: it scores
// candidates by query-term coverage so an expensive model only ever sees a
// bounded pool. It runs locally and is always available.
type TermOverlapReranker struct{}

// NewTermOverlapReranker creates a new TermOverlapReranker.
func NewTermOverlapReranker() *TermOverlapReranker {
	return &TermOverlapReranker{}
}

// Available always reports true; the scorer has no external dependency.
func (r *TermOverlapReranker) Available(ctx context.Context) bool {
	return true
}

// Rerank scores documents by the fraction of query terms each contains,
// with a tie-break toward earlier (higher fused rank) candidates.
func (r *TermOverlapReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]docsearch.RerankResult, error) {
	if query == "" {
		return nil, docsearch.Errorf(docsearch.EINVALID, "query required")
	}
	if len(documents) == 0 {
		return nil, nil
	}

	terms := strings.Fields(strings.ToLower(query))
	results := make([]docsearch.RerankResult, len(documents))
	for i, doc := range documents {
		lower := strings.ToLower(doc)
		matched := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched++
			}
		}
		score := 0.0
		if len(terms) > 0 {
			score = float64(matched) / float64(len(terms))
		}
		results[i] = docsearch.RerankResult{Index: i, Score: score}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
