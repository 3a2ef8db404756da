package search

import (
	"github.com/fwojciec/docsearch"
)

// Fusion defaults. The rank decay curve is a heuristic, not a contract;
// it is kept tunable on the Searcher.
const (
	DefaultRankDecay      = 0.1
	DefaultLexicalWeight  = 0.4
	DefaultSemanticWeight = 0.6
)

// rankScore converts a zero-based rank into a comparable score. The two
// indexes don't expose raw scores on a shared scale, so lexical candidates
// are scored by position.
func rankScore(rank int, decay float64) float64 {
	return 1.0 / (1.0 + decay*float64(rank))
}

// distanceSimilarity converts a raw vector distance into a similarity.
func distanceSimilarity(distance float32) float64 {
	return 1.0 / (1.0 + float64(distance))
}

// fuse merges the lexical and semantic candidate sets into one score per
// chunk id. A chunk surfaced by both legs accumulates both contributions.
func fuse(lexical []docsearch.LexicalHit, semantic []docsearch.VectorHit, lexicalWeight, semanticWeight, decay float64) map[string]float64 {
	scores := make(map[string]float64, len(lexical)+len(semantic))

	for rank, hit := range lexical {
		scores[hit.ID] += lexicalWeight * rankScore(rank, decay)
	}
	for _, hit := range semantic {
		scores[hit.ID] += semanticWeight * distanceSimilarity(hit.Distance)
	}

	return scores
}
