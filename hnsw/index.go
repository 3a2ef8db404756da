// Package hnsw implements the semantic (embedding) index over child chunks
// using a pure Go HNSW graph, avoiding CGO vector store dependencies.
package hnsw

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.VectorIndex = (*Index)(nil)

// Index wraps an HNSW graph with the string-keyed interface the rest of the
// system uses. Vectors are normalized on insert so cosine distance holds.
type Index struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	path       string
	dimensions int

	// Chunk IDs are strings; the graph wants integer keys.
	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// metadata stores the ID mappings alongside the exported graph.
type metadata struct {
	IDMap      map[string]uint64
	NextKey    uint64
	Dimensions int
}

// Open opens the vector index at path, loading existing data when present.
// An empty path keeps the index purely in memory.
func Open(path string, dimensions int) (*Index, error) {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	idx := &Index{
		graph:      graph,
		path:       path,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := idx.load(); err != nil {
				return nil, err
			}
		}
	}

	return idx, nil
}

// Add inserts vectors keyed by chunk id. Existing ids are replaced.
func (i *Index) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return docsearch.Errorf(docsearch.EINVALID, "ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return docsearch.Errorf(docsearch.EINTERNAL, "vector index is closed")
	}

	for _, v := range vectors {
		if len(v) != i.dimensions {
			return docsearch.Errorf(docsearch.EINVALID, "vector dimension %d, index expects %d", len(v), i.dimensions)
		}
	}

	for n, id := range ids {
		// Replacing an id orphans its old graph node rather than deleting
		// it; deleting nodes destabilizes the graph.
		if key, exists := i.idMap[id]; exists {
			delete(i.keyMap, key)
			delete(i.idMap, id)
		}

		key := i.nextKey
		i.nextKey++

		vec := make([]float32, len(vectors[n]))
		copy(vec, vectors[n])
		normalize(vec)

		i.graph.Add(hnsw.MakeNode(key, vec))
		i.idMap[id] = key
		i.keyMap[key] = id
	}

	return nil
}

// Search returns the k nearest chunk ids to the query vector.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]docsearch.VectorHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "vector index is closed")
	}
	if len(query) != i.dimensions {
		return nil, docsearch.Errorf(docsearch.EINVALID, "query dimension %d, index expects %d", len(query), i.dimensions)
	}
	if i.graph.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	nodes := i.graph.Search(q, k)

	hits := make([]docsearch.VectorHit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := i.keyMap[node.Key]
		if !ok {
			// Orphaned by a replacement.
			continue
		}
		hits = append(hits, docsearch.VectorHit{
			ID:       id,
			Distance: i.graph.Distance(q, node.Value),
		})
	}

	return hits, nil
}

// Count returns the number of indexed vectors.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return 0
	}
	return len(i.idMap)
}

// Reset discards every vector and ID mapping, leaving an empty graph with
// the same parameters. The on-disk artifact is replaced on the next Save.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return docsearch.Errorf(docsearch.EINTERNAL, "vector index is closed")
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	i.graph = graph
	i.idMap = make(map[string]uint64)
	i.keyMap = make(map[uint64]string)
	i.nextKey = 0

	return nil
}

// Save persists the graph and ID mappings atomically via temp files.
func (i *Index) Save() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return docsearch.Errorf(docsearch.EINTERNAL, "vector index is closed")
	}
	if i.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(i.path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmpPath := i.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := i.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpPath, i.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	return i.saveMetadata()
}

func (i *Index) saveMetadata() error {
	metaPath := i.path + ".meta"
	tmpPath := metaPath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}

	meta := metadata{
		IDMap:      i.idMap,
		NextKey:    i.nextKey,
		Dimensions: i.dimensions,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close metadata file: %w", err)
	}

	return os.Rename(tmpPath, metaPath)
}

func (i *Index) load() error {
	file, err := os.Open(i.path + ".meta")
	if err != nil {
		return fmt.Errorf("failed to open metadata file: %w", err)
	}
	var meta metadata
	decodeErr := gob.NewDecoder(file).Decode(&meta)
	file.Close()
	if decodeErr != nil {
		return fmt.Errorf("failed to decode metadata: %w", decodeErr)
	}

	i.idMap = meta.IDMap
	i.nextKey = meta.NextKey
	if meta.Dimensions != 0 {
		i.dimensions = meta.Dimensions
	}
	i.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		i.keyMap[key] = id
	}

	graphFile, err := os.Open(i.path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer graphFile.Close()

	// Import requires an io.ByteReader.
	if err := i.graph.Import(bufio.NewReader(graphFile)); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}

	return nil
}

// Close releases index resources.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.graph = nil
	return nil
}

// normalize scales v to unit length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for n := range v {
		v[n] /= norm
	}
}
