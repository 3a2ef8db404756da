// Package index coordinates the offline build lifecycle: URL discovery,
// page crawling, chunking, and the checkpointed dual-index build. It is
// the single writer of the on-disk index artifacts; querying happens
// through the search package against the built indexes.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/crawl"
	"github.com/google/uuid"
)

// Defaults for the build lifecycle.
const (
	// DefaultBatchSize is how many chunks are embedded per checkpoint.
	DefaultBatchSize = 10000

	// DefaultUpdateInterval marks an index stale after this long even when
	// its version matches.
	DefaultUpdateInterval = 7 * 24 * time.Hour
)

// Discoverer produces the URL set for a build.
type Discoverer interface {
	Discover(ctx context.Context, feedURL string, filter *docsearch.URLFilter) ([]docsearch.URLRecord, error)
}

// Crawler turns URL records into extracted pages.
type Crawler interface {
	CrawlPages(ctx context.Context, records []docsearch.URLRecord, progress crawl.ProgressFunc) ([]docsearch.PageRecord, *crawl.Result, error)
}

// Manager owns the index lifecycle. All collaborators are required unless
// noted otherwise.
type Manager struct {
	FeedURL string
	Filter  *docsearch.URLFilter

	Discoverer Discoverer
	Crawler    Crawler
	Chunker    docsearch.Chunker
	Embedder   docsearch.Embedder
	Vector     docsearch.VectorIndex
	Lexical    docsearch.LexicalIndex

	URLs     docsearch.URLStore
	Chunks   docsearch.ChunkStore
	Metadata docsearch.MetadataStore
	Progress docsearch.ProgressStore

	// ModelName is recorded in metadata for observability.
	ModelName string

	BatchSize      int
	UpdateInterval time.Duration

	// Logf, when set, receives build log lines prefixed with a run id.
	Logf crawl.LogFunc

	// Now is the clock used for staleness checks and timestamps.
	// Nil means time.Now.
	Now func() time.Time
}

// Status describes the current state of the on-disk index.
type Status struct {
	Initialized bool
	Stale       bool
	Metadata    *docsearch.IndexMetadata
	Progress    *docsearch.EmbeddingProgress
}

// Initialize makes the index usable: it loads from cache when the stored
// metadata is version-matched and fresh, otherwise it rebuilds. force
// always rebuilds, including re-discovery. Idempotent.
func (m *Manager) Initialize(ctx context.Context, force bool) error {
	if !force && !m.needsUpdate() {
		return nil
	}
	return m.build(ctx, force)
}

// Status reports whether the index is usable and how far an in-flight
// build has advanced. Never errors: missing state reads as uninitialized.
func (m *Manager) Status() *Status {
	status := &Status{}

	meta, err := m.Metadata.LoadMetadata()
	if err == nil {
		status.Metadata = meta
		status.Initialized = meta.Version == docsearch.IndexVersion
		status.Stale = m.clock().Sub(meta.LastUpdate) > m.updateInterval()
	}

	if progress, err := m.Progress.LoadProgress(); err == nil {
		status.Progress = progress
	}

	return status
}

// needsUpdate reports whether a rebuild is required: no metadata, a
// version-tag mismatch, or metadata older than the update interval.
func (m *Manager) needsUpdate() bool {
	meta, err := m.Metadata.LoadMetadata()
	if err != nil {
		return true
	}
	if meta.Version != docsearch.IndexVersion {
		return true
	}
	return m.clock().Sub(meta.LastUpdate) > m.updateInterval()
}

// versionMismatch reports whether stored metadata carries a different index
// version than this code writes. Absent metadata is not a mismatch.
func (m *Manager) versionMismatch() bool {
	meta, err := m.Metadata.LoadMetadata()
	return err == nil && meta.Version != docsearch.IndexVersion
}

// build runs the full pipeline. Metadata is written only after every stage
// has completed, so an interrupted build reads as "needs update" next run.
func (m *Manager) build(ctx context.Context, force bool) error {
	runID := uuid.NewString()
	m.logf("[%s] build started (force=%t)", runID, force)

	// A forced build or a version-tag mismatch invalidates the stored
	// embeddings wholesale: the chunking strategy may have changed, so
	// neither the progress record nor the vectors already in the graph can
	// be trusted to describe the new chunk set. Missing metadata is not a
	// mismatch; an interrupted first build still resumes from progress.
	if force || m.versionMismatch() {
		if err := m.Vector.Reset(ctx); err != nil {
			return fmt.Errorf("reset vector index: %w", err)
		}
		if err := m.Progress.Clear(); err != nil {
			return fmt.Errorf("clear embedding progress: %w", err)
		}
	}

	records, err := m.discover(ctx, force)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	m.logf("[%s] discovered %d urls", runID, len(records))

	pages, result, err := m.Crawler.CrawlPages(ctx, records, nil)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	m.logf("[%s] crawled %d pages (%d cached, %d failed, %d skipped)",
		runID, len(pages), result.Cached, result.Failed, result.Skipped)

	parents, children, err := m.chunkPages(ctx, pages)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if err := m.Chunks.ReplaceAll(ctx, parents, children); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	m.logf("[%s] chunked into %d parents, %d children", runID, len(parents), len(children))

	// The lexical index needs no model and is always rebuilt in full so it
	// stays in lock-step with the chunk set.
	if err := m.Lexical.Index(ctx, children); err != nil {
		return fmt.Errorf("lexical index: %w", err)
	}

	if err := m.buildEmbeddings(ctx, children); err != nil {
		return fmt.Errorf("semantic index: %w", err)
	}

	defaultCfg := docsearch.ConfigForDocType(docsearch.DocTypeConcept)
	meta := &docsearch.IndexMetadata{
		Version:            docsearch.IndexVersion,
		LastUpdate:         m.clock(),
		PageCount:          len(pages),
		ModelName:          m.ModelName,
		ChunkSizeTokens:    defaultCfg.Size,
		ChunkOverlapTokens: defaultCfg.Overlap,
	}
	if err := m.Metadata.SaveMetadata(meta); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}

	m.logf("[%s] build finished", runID)
	return nil
}

// discover reuses the persisted URL list unless forced or absent.
func (m *Manager) discover(ctx context.Context, force bool) ([]docsearch.URLRecord, error) {
	if !force && m.URLs != nil {
		if records, err := m.URLs.LoadURLList(ctx); err == nil {
			return records, nil
		}
	}
	return m.Discoverer.Discover(ctx, m.FeedURL, m.Filter)
}

// chunkPages runs the chunker over every page. A single page failing to
// chunk is skipped, not fatal.
func (m *Manager) chunkPages(ctx context.Context, pages []docsearch.PageRecord) ([]docsearch.ParentChunk, []docsearch.ChildChunk, error) {
	var parents []docsearch.ParentChunk
	var children []docsearch.ChildChunk

	for i := range pages {
		p, c, err := m.Chunker.Chunk(ctx, &pages[i])
		if err != nil {
			m.logf("chunk %s: %v", pages[i].URL, err)
			continue
		}
		parents = append(parents, p...)
		children = append(children, c...)
	}

	if len(children) == 0 {
		return nil, nil, docsearch.Errorf(docsearch.EINTERNAL, "no chunks produced")
	}
	return parents, children, nil
}

// buildEmbeddings embeds children in fixed batches, persisting the vector
// index and a progress record after each batch. A resumed build skips the
// chunks a previous run already completed; chunk ids are deterministic and
// build() clears the progress record whenever it cannot be trusted, so the
// skipped prefix corresponds to the same content.
func (m *Manager) buildEmbeddings(ctx context.Context, children []docsearch.ChildChunk) error {
	total := len(children)

	completed := 0
	if progress, err := m.Progress.LoadProgress(); err == nil && progress.Total == total {
		completed = progress.Completed
		if completed > total {
			completed = total
		}
	}

	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := completed; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := children[start:end]

		texts := make([]string, len(batch))
		ids := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
			ids[i] = c.ID
		}

		vectors, err := m.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if err := m.Vector.Add(ctx, ids, vectors); err != nil {
			return err
		}

		// A batch counts as complete only once both the index and the
		// progress record hit disk.
		if err := m.Vector.Save(); err != nil {
			return err
		}
		if err := m.Progress.SaveProgress(&docsearch.EmbeddingProgress{
			Completed: end,
			Total:     total,
			Timestamp: m.clock(),
		}); err != nil {
			return err
		}
	}

	// Record a completed run even when everything was skipped, so status
	// reporting shows the full count.
	if completed >= total {
		return m.Progress.SaveProgress(&docsearch.EmbeddingProgress{
			Completed: total,
			Total:     total,
			Timestamp: m.clock(),
		})
	}
	return nil
}

func (m *Manager) updateInterval() time.Duration {
	if m.UpdateInterval > 0 {
		return m.UpdateInterval
	}
	return DefaultUpdateInterval
}

func (m *Manager) clock() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}
