package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of docsearch.Embedder.
type Embedder struct {
	EmbedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
	DimensionsFn func() int
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedBatchFn(ctx, texts)
}

func (e *Embedder) Dimensions() int {
	return e.DimensionsFn()
}

var _ docsearch.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a mock implementation of docsearch.VectorIndex.
type VectorIndex struct {
	AddFn    func(ctx context.Context, ids []string, vectors [][]float32) error
	SearchFn func(ctx context.Context, query []float32, k int) ([]docsearch.VectorHit, error)
	CountFn  func() int
	ResetFn  func(ctx context.Context) error
	SaveFn   func() error
	CloseFn  func() error
}

func (i *VectorIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	return i.AddFn(ctx, ids, vectors)
}

func (i *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]docsearch.VectorHit, error) {
	return i.SearchFn(ctx, query, k)
}

func (i *VectorIndex) Count() int {
	return i.CountFn()
}

func (i *VectorIndex) Reset(ctx context.Context) error {
	return i.ResetFn(ctx)
}

func (i *VectorIndex) Save() error {
	return i.SaveFn()
}

func (i *VectorIndex) Close() error {
	return i.CloseFn()
}

var _ docsearch.LexicalIndex = (*LexicalIndex)(nil)

// LexicalIndex is a mock implementation of docsearch.LexicalIndex.
type LexicalIndex struct {
	IndexFn  func(ctx context.Context, chunks []docsearch.ChildChunk) error
	SearchFn func(ctx context.Context, query string, k int) ([]docsearch.LexicalHit, error)
	CountFn  func() (int, error)
	CloseFn  func() error
}

func (i *LexicalIndex) Index(ctx context.Context, chunks []docsearch.ChildChunk) error {
	return i.IndexFn(ctx, chunks)
}

func (i *LexicalIndex) Search(ctx context.Context, query string, k int) ([]docsearch.LexicalHit, error) {
	return i.SearchFn(ctx, query, k)
}

func (i *LexicalIndex) Count() (int, error) {
	return i.CountFn()
}

func (i *LexicalIndex) Close() error {
	return i.CloseFn()
}

var _ docsearch.Reranker = (*Reranker)(nil)

// Reranker is a mock implementation of docsearch.Reranker.
type Reranker struct {
	RerankFn    func(ctx context.Context, query string, documents []string, topK int) ([]docsearch.RerankResult, error)
	AvailableFn func(ctx context.Context) bool
}

func (r *Reranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]docsearch.RerankResult, error) {
	return r.RerankFn(ctx, query, documents, topK)
}

func (r *Reranker) Available(ctx context.Context) bool {
	return r.AvailableFn(ctx)
}
