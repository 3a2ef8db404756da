// Package bleve implements the lexical (keyword) index over child chunks
// using Bleve. The index lives on disk next to the other index artifacts
// and can be rebuilt from the chunk store without calling any model.
package bleve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.LexicalIndex = (*Index)(nil)

// Index wraps a Bleve index over child chunk content.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// chunkDocument is the shape Bleve indexes for each child chunk. The
// heading path is indexed separately so section titles outweigh body text.
type chunkDocument struct {
	Content     string `json:"content"`
	HeadingPath string `json:"headingPath"`
	Product     string `json:"product"`
}

// Open opens the index at path, creating it if absent. An empty path opens
// an in-memory index, used in tests.
func Open(path string) (*Index, error) {
	m := buildMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open lexical index: %w", err)
	}

	return &Index{index: idx}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	chunkMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = en.AnalyzerName
	chunkMapping.AddFieldMappingsAt("content", contentField)

	headingField := bleve.NewTextFieldMapping()
	headingField.Analyzer = en.AnalyzerName
	chunkMapping.AddFieldMappingsAt("headingPath", headingField)

	productField := bleve.NewKeywordFieldMapping()
	chunkMapping.AddFieldMappingsAt("product", productField)

	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = en.AnalyzerName
	m.DefaultMapping = chunkMapping
	return m
}

// Index adds or replaces child chunks in the index.
func (i *Index) Index(ctx context.Context, chunks []docsearch.ChildChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return docsearch.Errorf(docsearch.EINTERNAL, "lexical index is closed")
	}

	batch := i.index.NewBatch()
	for _, chunk := range chunks {
		doc := chunkDocument{
			Content:     chunk.Content,
			HeadingPath: chunk.HeadingPath,
			Product:     chunk.Product,
		}
		if err := batch.Index(chunk.ID, doc); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", chunk.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute index batch: %w", err)
	}

	return nil
}

// Search returns up to k matches ranked by relevance. Heading path matches
// are boosted over body matches.
func (i *Index) Search(ctx context.Context, query string, k int) ([]docsearch.LexicalHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "lexical index is closed")
	}
	if query == "" || k <= 0 {
		return nil, nil
	}

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")

	headingQuery := bleve.NewMatchQuery(query)
	headingQuery.SetField("headingPath")
	headingQuery.SetBoost(2.0)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(contentQuery, headingQuery))
	req.Size = k

	result, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	hits := make([]docsearch.LexicalHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, docsearch.LexicalHit{ID: hit.ID, Score: hit.Score})
	}

	return hits, nil
}

// Count returns the number of indexed chunks.
func (i *Index) Count() (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return 0, docsearch.Errorf(docsearch.EINTERNAL, "lexical index is closed")
	}

	n, err := i.index.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close releases index resources.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.index.Close()
}
