// Package chunk splits pages into parent and child retrieval units.
//
// Parents span major (H2) sections and provide expanded context at answer
// time. Children are the indexed units: a whole section when it fits the
// document type's token ceiling, otherwise H3 subsections, otherwise
// sliding token windows with overlap. Chunk IDs are derived from content
// location, so re-chunking an unchanged page yields identical IDs and an
// interrupted index build can resume without duplicates.
package chunk

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docsearch"
)

var _ docsearch.Chunker = (*Chunker)(nil)

// Chunker implements adaptive parent/child chunking.
type Chunker struct {
	counter docsearch.TokenCounter
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTokenCounter sets the model tokenizer used for recorded token counts.
// Without one, counts fall back to the character estimate.
func WithTokenCounter(tc docsearch.TokenCounter) Option {
	return func(c *Chunker) {
		c.counter = tc
	}
}

// New creates a new Chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk converts a page into parent and child chunks.
func (c *Chunker) Chunk(ctx context.Context, page *docsearch.PageRecord) ([]docsearch.ParentChunk, []docsearch.ChildChunk, error) {
	if err := page.Validate(); err != nil {
		return nil, nil, err
	}

	docType := docsearch.DocTypeForURL(page.URL)
	cfg := docsearch.ConfigForDocType(docType)

	segments := splitSegments(page)
	if len(segments) == 0 {
		return nil, c.chunkDegenerate(ctx, page, docType, cfg), nil
	}

	var parents []docsearch.ParentChunk
	var children []docsearch.ChildChunk

	for i, seg := range segments {
		parent := docsearch.ParentChunk{
			ID:          chunkID("parent", page.URL, seg.path, i),
			URL:         page.URL,
			Product:     page.Product,
			Content:     seg.content,
			HeadingPath: seg.path,
		}
		parents = append(parents, parent)
		children = append(children, c.chunkSegment(ctx, page, parent, seg, docType, cfg)...)
	}

	return parents, children, nil
}

// segment is one H2-bounded slice of a page, with the H3 subsections it
// contains.
type segment struct {
	path    string
	anchor  string
	heading string // markdown heading line, empty for the preamble
	content string
	subs    []subsection
}

type subsection struct {
	path    string
	anchor  string
	heading string
	content string
}

// splitSegments slices page content at H2 boundaries. Content before the
// first H2 becomes its own segment under the page title. Returns nil when
// the page has no H2 structure.
func splitSegments(page *docsearch.PageRecord) []segment {
	var h2s []docsearch.Section
	for _, s := range page.Sections {
		if s.Level == 2 {
			h2s = append(h2s, s)
		}
	}
	if len(h2s) == 0 {
		return nil
	}

	var segments []segment

	pre := strings.TrimSpace(page.Content[:h2s[0].Offset])
	if strings.HasPrefix(pre, "# ") {
		// The H1 restates the title; only keep the preamble body.
		if i := strings.IndexByte(pre, '\n'); i >= 0 {
			pre = strings.TrimSpace(pre[i+1:])
		} else {
			pre = ""
		}
	}
	if pre != "" {
		segments = append(segments, segment{
			path:    page.Title,
			content: pre,
		})
	}

	for i, h2 := range h2s {
		end := len(page.Content)
		if i+1 < len(h2s) {
			end = h2s[i+1].Offset
		}
		content := strings.TrimSpace(page.Content[h2.Offset:end])
		if content == "" {
			continue
		}

		seg := segment{
			path:    page.Title + " > " + h2.Title,
			anchor:  h2.Anchor,
			heading: "## " + h2.Title,
			content: content,
		}
		seg.subs = splitSubsections(page, seg, h2.Offset, end)
		segments = append(segments, seg)
	}

	return segments
}

// splitSubsections slices one H2 segment at its H3 boundaries. The intro
// before the first H3 stays under the H2's own path.
func splitSubsections(page *docsearch.PageRecord, seg segment, start, end int) []subsection {
	var h3s []docsearch.Section
	for _, s := range page.Sections {
		if s.Level == 3 && s.Offset > start && s.Offset < end {
			h3s = append(h3s, s)
		}
	}
	if len(h3s) == 0 {
		return nil
	}

	var subs []subsection

	if intro := strings.TrimSpace(page.Content[start:h3s[0].Offset]); intro != "" {
		subs = append(subs, subsection{
			path:    seg.path,
			anchor:  seg.anchor,
			heading: seg.heading,
			content: intro,
		})
	}

	for i, h3 := range h3s {
		subEnd := end
		if i+1 < len(h3s) {
			subEnd = h3s[i+1].Offset
		}
		content := strings.TrimSpace(page.Content[h3.Offset:subEnd])
		if content == "" {
			continue
		}
		subs = append(subs, subsection{
			path:    seg.path + " > " + h3.Title,
			anchor:  h3.Anchor,
			heading: "### " + h3.Title,
			content: content,
		})
	}

	return subs
}

// chunkSegment produces the child chunks for one H2 segment: the whole
// segment when it fits, its H3 subsections otherwise, token windows last.
func (c *Chunker) chunkSegment(ctx context.Context, page *docsearch.PageRecord, parent docsearch.ParentChunk, seg segment, docType docsearch.DocType, cfg docsearch.ChunkConfig) []docsearch.ChildChunk {
	if tokens := c.countTokens(ctx, seg.content); tokens <= cfg.Size {
		return []docsearch.ChildChunk{c.newChild(page, parent.ID, seg.path, seg.anchor, docType, seg.content, tokens, 0, false)}
	}

	pieces := seg.subs
	if len(pieces) == 0 {
		pieces = []subsection{{path: seg.path, anchor: seg.anchor, heading: seg.heading, content: seg.content}}
	}

	var children []docsearch.ChildChunk
	index := 0 // segment-scoped so duplicate H3 titles can't collide on IDs
	for _, sub := range pieces {
		if tokens := c.countTokens(ctx, sub.content); tokens <= cfg.Size {
			children = append(children, c.newChild(page, parent.ID, sub.path, sub.anchor, docType, sub.content, tokens, index, false))
			index++
			continue
		}

		for i, w := range splitWindows(sub.content, cfg) {
			if w == sub.heading {
				// A heading with no body left under it is noise.
				continue
			}
			if i > 0 && sub.heading != "" && !strings.HasPrefix(w, sub.heading) {
				w = sub.heading + "\n\n" + w
			}
			tokens := c.countTokens(ctx, w)
			children = append(children, c.newChild(page, parent.ID, sub.path, sub.anchor, docType, w, tokens, index, tokens > cfg.Size))
			index++
		}
	}

	return children
}

// chunkDegenerate handles pages without H2 structure: flat window chunks
// with no parents, flagged so downstream consumers know context expansion
// is unavailable.
func (c *Chunker) chunkDegenerate(ctx context.Context, page *docsearch.PageRecord, docType docsearch.DocType, cfg docsearch.ChunkConfig) []docsearch.ChildChunk {
	content := strings.TrimSpace(page.Content)
	if content == "" {
		return nil
	}

	var children []docsearch.ChildChunk
	for i, w := range splitWindows(content, cfg) {
		child := c.newChild(page, "", page.Title, "", docType, w, c.countTokens(ctx, w), i, false)
		child.Degenerate = true
		children = append(children, child)
	}
	return children
}

func (c *Chunker) newChild(page *docsearch.PageRecord, parentID, path, anchor string, docType docsearch.DocType, content string, tokens, index int, oversized bool) docsearch.ChildChunk {
	return docsearch.ChildChunk{
		ID:          chunkID("child", page.URL, parentID+"|"+path, index),
		ParentID:    parentID,
		URL:         page.URL,
		Product:     page.Product,
		Content:     content,
		HeadingPath: path,
		Anchor:      anchor,
		DocType:     docType,
		TokenCount:  tokens,
		Oversized:   oversized,
	}
}

// countTokens uses the model tokenizer when available, falling back to the
// character estimate on any failure so chunking never aborts.
func (c *Chunker) countTokens(ctx context.Context, text string) int {
	if c.counter != nil {
		if n, err := c.counter.CountTokens(ctx, text); err == nil {
			return n
		}
	}
	return docsearch.EstimateTokens(text)
}

// splitWindows splits text into line-aligned windows of roughly cfg.Size
// tokens with cfg.Overlap tokens of trailing context carried into the next
// window. Token budgets use the character estimate so window boundaries are
// deterministic. A single line too large for one window stays whole; its
// chunk is flagged oversized by the caller.
func splitWindows(text string, cfg docsearch.ChunkConfig) []string {
	lines := strings.Split(text, "\n")

	var windows []string
	start := 0
	for start < len(lines) {
		tokens := 0
		end := start
		for end < len(lines) {
			lineTokens := docsearch.EstimateTokens(lines[end]) + 1
			if end > start && tokens+lineTokens > cfg.Size {
				break
			}
			tokens += lineTokens
			end++
		}

		if w := strings.TrimSpace(strings.Join(lines[start:end], "\n")); w != "" {
			windows = append(windows, w)
		}
		if end >= len(lines) {
			break
		}

		// Step back from the cut to cover the overlap budget.
		back := end
		overlap := 0
		for back > start+1 && overlap < cfg.Overlap {
			overlap += docsearch.EstimateTokens(lines[back-1]) + 1
			if overlap > cfg.Overlap {
				break
			}
			back--
		}
		start = back
	}

	return windows
}

// chunkID derives a stable chunk identifier from the chunk's location in
// the corpus.
func chunkID(kind, url, headingPath string, index int) string {
	h := xxhash.New()
	h.WriteString(kind)
	h.WriteString("\x00")
	h.WriteString(url)
	h.WriteString("\x00")
	h.WriteString(headingPath)
	h.WriteString("\x00")
	h.WriteString(strconv.Itoa(index))
	return fmt.Sprintf("%016x", h.Sum64())
}
