package docsearch

import (
	"context"
	"time"
)

// IndexVersion is the compatibility tag for the on-disk index format and
// chunking strategy. Any change to either bumps the version and forces a
// full rebuild of chunks and embeddings.
const IndexVersion = "4.0.0-parent-child"

// IndexMetadata is the single source of truth for whether the on-disk index
// is usable and matches the current code version. Written atomically after a
// successful build.
type IndexMetadata struct {
	Version            string    `json:"version"`
	LastUpdate         time.Time `json:"lastUpdate"`
	PageCount          int       `json:"pageCount"`
	ModelName          string    `json:"modelName"`
	ChunkSizeTokens    int       `json:"chunkSizeTokens"`
	ChunkOverlapTokens int       `json:"chunkOverlapTokens"`
}

// EmbeddingProgress records how far an incremental index build has advanced.
// Written after every batch; purely advisory for resume and observability.
type EmbeddingProgress struct {
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// MetadataStore persists IndexMetadata.
type MetadataStore interface {
	// SaveMetadata atomically writes the metadata.
	SaveMetadata(meta *IndexMetadata) error

	// LoadMetadata returns the stored metadata.
	// Returns ENOTFOUND if none exists or the file fails to parse.
	LoadMetadata() (*IndexMetadata, error)
}

// ProgressStore persists EmbeddingProgress.
type ProgressStore interface {
	SaveProgress(p *EmbeddingProgress) error

	// LoadProgress returns the stored progress.
	// Returns ENOTFOUND if none exists or the file fails to parse.
	LoadProgress() (*EmbeddingProgress, error)

	// Clear removes the stored progress. Clearing absent progress is not
	// an error.
	Clear() error
}

// Embedder converts text into embedding vectors.
type Embedder interface {
	// EmbedBatch embeds the given texts, returning one vector per input in
	// the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}

// VectorHit is one semantic index match.
type VectorHit struct {
	ID       string
	Distance float32 // smaller is closer
}

// VectorIndex is the semantic (embedding) index over child chunks.
// Safe for concurrent read-only querying after a build completes.
type VectorIndex interface {
	// Add inserts vectors keyed by chunk id. Existing ids are replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search returns the k nearest chunk ids to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of indexed vectors.
	Count() int

	// Reset removes every vector so a rebuild starts from an empty index.
	Reset(ctx context.Context) error

	// Save persists the index to its backing location.
	Save() error

	// Close releases index resources.
	Close() error
}

// LexicalHit is one term-frequency index match.
type LexicalHit struct {
	ID    string
	Score float64
}

// LexicalIndex is the keyword index over child chunks. It is cheap to
// rebuild from the chunk store (no model required) and must stay in
// lock-step with the semantic index: when chunk content changes both are
// rebuilt together.
type LexicalIndex interface {
	// Index adds or replaces child chunks in the index.
	Index(ctx context.Context, chunks []ChildChunk) error

	// Search returns up to k matches ranked by relevance.
	Search(ctx context.Context, query string, k int) ([]LexicalHit, error)

	// Count returns the number of indexed chunks.
	Count() (int, error)

	// Close releases index resources.
	Close() error
}
