package docsearch

import "context"

// SearchResult represents a search match. Transient; never persisted.
type SearchResult struct {
	Text        string  `json:"text"`
	URL         string  `json:"url"` // includes the section anchor when known
	Product     string  `json:"product"`
	Score       float64 `json:"score"`
	HeadingPath string  `json:"headingPath,omitempty"`
}

// SearchOptions configures a search.
type SearchOptions struct {
	// TopK is the maximum number of results to return. Defaults to 5.
	TopK int

	// Product filters results to a single product. Applied post-merge
	// because the hybrid step has no native filtering.
	Product string

	// ExpandQuery appends bounded domain synonyms to the query before
	// retrieval. Off by default.
	ExpandQuery bool
}

// SearchService serves hybrid search over the built indexes.
// An uninitialized index yields an empty result list, never an error.
type SearchService interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// RerankResult is a single reranked candidate.
type RerankResult struct {
	// Index is the original position in the input documents slice.
	Index int `json:"index"`

	// Score is the model relevance score.
	Score float64 `json:"score"`
}

// Reranker re-scores candidate documents against a query.
// Implementations range from a cheap local heuristic (first pass) to an
// expensive model (final ordering).
type Reranker interface {
	// Rerank scores the documents and returns them sorted by score
	// descending. topK limits the output when > 0.
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error)

	// Available reports whether the reranker can currently serve requests.
	// Unavailable rerankers are skipped, not treated as failures.
	Available(ctx context.Context) bool
}
