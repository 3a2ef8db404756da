package search

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/docsearch"
)

const (
	// DefaultTopK is the result count when the caller doesn't specify one.
	DefaultTopK = 5

	// lightRerankPool is how many candidates survive the cheap rerank
	// stage into the expensive one.
	lightRerankPool = 80

	// versionPrefilterCap bounds the pool for version queries after exact
	// matches have been pulled to the front.
	versionPrefilterCap = 100

	// maxChunksPerURL is the page-level diversity cap.
	maxChunksPerURL = 2

	// Multiplicative score boosts. Validated designs are curated reference
	// architectures; release notes answer version queries that embedding
	// similarity alone cannot, so they get the larger boosts.
	validatedDesignsBoost = 1.15
	releaseNotesBoost     = 2.0
	exactVersionBoost     = 4.0
)

// Compile-time interface verification.
var _ docsearch.SearchService = (*Searcher)(nil)

// Config assembles a Searcher's dependencies.
type Config struct {
	Lexical  docsearch.LexicalIndex
	Vector   docsearch.VectorIndex
	Embedder docsearch.Embedder

	// Chunks is the child chunk set the indexes were built from.
	Chunks []docsearch.ChildChunk

	// Parents optionally supplies parent chunks for context expansion of
	// final results.
	Parents docsearch.ChunkStore

	// Light is the cheap first rerank stage. Defaults to the local
	// term-overlap scorer.
	Light docsearch.Reranker

	// Heavy is the model rerank stage. Skipped when nil or unavailable.
	Heavy docsearch.Reranker

	// Fusion tuning. Zero values take the package defaults.
	LexicalWeight  float64
	SemanticWeight float64
	RankDecay      float64
}

// Searcher serves hybrid search over built indexes. It never errors on an
// uninitialized index; it returns an empty result list instead.
type Searcher struct {
	lexical  docsearch.LexicalIndex
	vector   docsearch.VectorIndex
	embedder docsearch.Embedder
	chunks   map[string]docsearch.ChildChunk
	parents  docsearch.ChunkStore
	light    docsearch.Reranker
	heavy    docsearch.Reranker

	lexicalWeight  float64
	semanticWeight float64
	rankDecay      float64
}

// New creates a Searcher from its config.
func New(cfg Config) *Searcher {
	if cfg.Light == nil {
		cfg.Light = NewTermOverlapReranker()
	}
	if cfg.LexicalWeight == 0 {
		cfg.LexicalWeight = DefaultLexicalWeight
	}
	if cfg.SemanticWeight == 0 {
		cfg.SemanticWeight = DefaultSemanticWeight
	}
	if cfg.RankDecay == 0 {
		cfg.RankDecay = DefaultRankDecay
	}

	chunks := make(map[string]docsearch.ChildChunk, len(cfg.Chunks))
	for _, c := range cfg.Chunks {
		chunks[c.ID] = c
	}

	return &Searcher{
		lexical:        cfg.Lexical,
		vector:         cfg.Vector,
		embedder:       cfg.Embedder,
		chunks:         chunks,
		parents:        cfg.Parents,
		light:          cfg.Light,
		heavy:          cfg.Heavy,
		lexicalWeight:  cfg.LexicalWeight,
		semanticWeight: cfg.SemanticWeight,
		rankDecay:      cfg.RankDecay,
	}
}

type candidate struct {
	chunk        docsearch.ChildChunk
	score        float64
	versionMatch bool
}

// Search runs the full retrieval pipeline: hybrid candidate fusion,
// rule-based boosts, page-level diversity capping, and two-stage reranking.
func (s *Searcher) Search(ctx context.Context, query string, opts docsearch.SearchOptions) ([]docsearch.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []docsearch.SearchResult{}, nil
	}
	if s.lexical == nil || s.vector == nil || s.embedder == nil || len(s.chunks) == 0 {
		return []docsearch.SearchResult{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	info := AnalyzeQuery(query)

	retrievalQuery := query
	if opts.ExpandQuery {
		retrievalQuery = ExpandQuery(query)
	}

	k := s.poolSize(opts.Product != "", info.IsVersionQuery())

	lexHits, lexErr := s.lexical.Search(ctx, retrievalQuery, k)

	var vecHits []docsearch.VectorHit
	if vectors, err := s.embedder.EmbedBatch(ctx, []string{retrievalQuery}); err == nil && len(vectors) == 1 {
		vecHits, _ = s.vector.Search(ctx, vectors[0], k)
	}

	// Both legs failing degrades to "no results", never an error.
	if lexErr != nil && len(vecHits) == 0 {
		return []docsearch.SearchResult{}, nil
	}

	cands := s.collectCandidates(lexHits, vecHits, info, opts.Product)
	if len(cands) == 0 {
		return []docsearch.SearchResult{}, nil
	}

	if info.IsVersionQuery() {
		// Pull exact version matches to the front before capping, so the
		// rare matching documents survive into reranking.
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].versionMatch != cands[b].versionMatch {
				return cands[a].versionMatch
			}
			return cands[a].score > cands[b].score
		})
		if len(cands) > versionPrefilterCap {
			cands = cands[:versionPrefilterCap]
		}
	} else {
		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].score > cands[b].score
		})
	}

	cands = capPerURL(cands, maxChunksPerURL)
	cands = s.lightRerank(ctx, query, cands)
	cands = s.heavyRerank(ctx, query, cands, info)

	if len(cands) > topK {
		cands = cands[:topK]
	}

	return s.buildResults(ctx, cands), nil
}

// poolSize sizes the initial candidate pool per leg. Product filtering
// happens post-merge so a filtered query over-fetches heavily; version
// queries widen further because matching documents are rare.
func (s *Searcher) poolSize(productFilter, versionQuery bool) int {
	k := lightRerankPool
	if productFilter {
		k *= 10
	}
	if versionQuery {
		k *= 2
	}
	return k
}

// collectCandidates maps fused scores back to chunks, applies the product
// filter and the pre-rerank boosts, and caps boosted scores at 1.0.
func (s *Searcher) collectCandidates(lexHits []docsearch.LexicalHit, vecHits []docsearch.VectorHit, info QueryInfo, product string) []candidate {
	scores := fuse(lexHits, vecHits, s.lexicalWeight, s.semanticWeight, s.rankDecay)

	cands := make([]candidate, 0, len(scores))
	for id, score := range scores {
		chunk, ok := s.chunks[id]
		if !ok {
			continue
		}
		if product != "" && chunk.Product != product {
			continue
		}

		if strings.Contains(chunk.URL, "/validated-designs/") {
			score *= validatedDesignsBoost
		}
		if chunk.DocType == docsearch.DocTypeReleaseNotes {
			score *= releaseNotesBoost
		}
		if score > 1.0 {
			score = 1.0
		}

		cands = append(cands, candidate{
			chunk:        chunk,
			score:        score,
			versionMatch: MatchesVersionURL(chunk.URL, info),
		})
	}

	return cands
}

// capPerURL keeps at most limit chunks per base URL, preserving order.
func capPerURL(cands []candidate, limit int) []candidate {
	counts := make(map[string]int)
	out := cands[:0]
	for _, c := range cands {
		base := docsearch.CanonicalizeURL(c.chunk.URL)
		if counts[base] >= limit {
			continue
		}
		counts[base]++
		out = append(out, c)
	}
	return out
}

// lightRerank shrinks an oversized pool with the cheap scorer. Failures
// leave the fused order untouched.
func (s *Searcher) lightRerank(ctx context.Context, query string, cands []candidate) []candidate {
	if len(cands) <= lightRerankPool {
		return cands
	}

	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.chunk.Content
	}

	results, err := s.light.Rerank(ctx, query, docs, lightRerankPool)
	if err != nil {
		return cands[:lightRerankPool]
	}

	out := make([]candidate, 0, len(results))
	for _, r := range results {
		out = append(out, cands[r.Index])
	}
	return out
}

// heavyRerank re-scores the reduced pool with the model reranker and layers
// the version-aware boosts on top of the model score. The model has no
// notion of "this version string must match exactly"; the rule layer makes
// that binary signal outrank semantic similarity.
func (s *Searcher) heavyRerank(ctx context.Context, query string, cands []candidate, info QueryInfo) []candidate {
	if s.heavy == nil || !s.heavy.Available(ctx) {
		return cands
	}

	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.chunk.Content
	}

	results, err := s.heavy.Rerank(ctx, query, docs, len(cands))
	if err != nil {
		return cands
	}

	out := make([]candidate, 0, len(results))
	for _, r := range results {
		c := cands[r.Index]
		c.score = r.Score
		if c.chunk.DocType == docsearch.DocTypeReleaseNotes {
			c.score *= releaseNotesBoost
			if c.versionMatch {
				c.score *= exactVersionBoost
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].score > out[b].score
	})
	return out
}

// buildResults converts final candidates into SearchResults, expanding each
// child to its parent's content when a parent store is wired.
func (s *Searcher) buildResults(ctx context.Context, cands []candidate) []docsearch.SearchResult {
	results := make([]docsearch.SearchResult, 0, len(cands))
	for _, c := range cands {
		text := c.chunk.Content
		if s.parents != nil && c.chunk.ParentID != "" {
			if parent, err := s.parents.FindParent(ctx, c.chunk.ParentID); err == nil {
				text = parent.Content
			}
		}

		url := c.chunk.URL
		if c.chunk.Anchor != "" {
			url += "#" + c.chunk.Anchor
		}

		results = append(results, docsearch.SearchResult{
			Text:        text,
			URL:         url,
			Product:     c.chunk.Product,
			Score:       c.score,
			HeadingPath: c.chunk.HeadingPath,
		})
	}
	return results
}
