package mock

import (
	"context"

	"github.com/fwojciec/docsearch"
)

var _ docsearch.URLStore = (*URLStore)(nil)

// URLStore is a mock implementation of docsearch.URLStore.
type URLStore struct {
	SaveURLListFn func(ctx context.Context, records []docsearch.URLRecord) error
	LoadURLListFn func(ctx context.Context) ([]docsearch.URLRecord, error)
}

func (s *URLStore) SaveURLList(ctx context.Context, records []docsearch.URLRecord) error {
	return s.SaveURLListFn(ctx, records)
}

func (s *URLStore) LoadURLList(ctx context.Context) ([]docsearch.URLRecord, error) {
	return s.LoadURLListFn(ctx)
}

var _ docsearch.PageCache = (*PageCache)(nil)

// PageCache is a mock implementation of docsearch.PageCache.
type PageCache struct {
	GetFn func(ctx context.Context, url string, lastModified string) (*docsearch.PageRecord, error)
	PutFn func(ctx context.Context, page *docsearch.PageRecord) error
}

func (c *PageCache) Get(ctx context.Context, url string, lastModified string) (*docsearch.PageRecord, error) {
	return c.GetFn(ctx, url, lastModified)
}

func (c *PageCache) Put(ctx context.Context, page *docsearch.PageRecord) error {
	return c.PutFn(ctx, page)
}

var _ docsearch.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is a mock implementation of docsearch.ChunkStore.
type ChunkStore struct {
	ReplaceAllFn   func(ctx context.Context, parents []docsearch.ParentChunk, children []docsearch.ChildChunk) error
	LoadChildrenFn func(ctx context.Context) ([]docsearch.ChildChunk, error)
	FindParentFn   func(ctx context.Context, id string) (*docsearch.ParentChunk, error)
}

func (s *ChunkStore) ReplaceAll(ctx context.Context, parents []docsearch.ParentChunk, children []docsearch.ChildChunk) error {
	return s.ReplaceAllFn(ctx, parents, children)
}

func (s *ChunkStore) LoadChildren(ctx context.Context) ([]docsearch.ChildChunk, error) {
	return s.LoadChildrenFn(ctx)
}

func (s *ChunkStore) FindParent(ctx context.Context, id string) (*docsearch.ParentChunk, error) {
	return s.FindParentFn(ctx, id)
}

var _ docsearch.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is a mock implementation of docsearch.MetadataStore.
type MetadataStore struct {
	SaveMetadataFn func(meta *docsearch.IndexMetadata) error
	LoadMetadataFn func() (*docsearch.IndexMetadata, error)
}

func (s *MetadataStore) SaveMetadata(meta *docsearch.IndexMetadata) error {
	return s.SaveMetadataFn(meta)
}

func (s *MetadataStore) LoadMetadata() (*docsearch.IndexMetadata, error) {
	return s.LoadMetadataFn()
}

var _ docsearch.ProgressStore = (*ProgressStore)(nil)

// ProgressStore is a mock implementation of docsearch.ProgressStore.
type ProgressStore struct {
	SaveProgressFn func(p *docsearch.EmbeddingProgress) error
	LoadProgressFn func() (*docsearch.EmbeddingProgress, error)
	ClearFn        func() error
}

func (s *ProgressStore) SaveProgress(p *docsearch.EmbeddingProgress) error {
	return s.SaveProgressFn(p)
}

func (s *ProgressStore) LoadProgress() (*docsearch.EmbeddingProgress, error) {
	return s.LoadProgressFn()
}

func (s *ProgressStore) Clear() error {
	return s.ClearFn()
}
