package docsearch

import (
	"context"
	"regexp"
	"strings"
)

// DocType classifies a page by the shape of its URL. It determines chunk
// sizing: reference material retrieves best in small, dense units while
// tutorials need more surrounding prose.
type DocType string

// Document types inferred from URL shape.
const (
	DocTypeReference     DocType = "reference"     // API/CLI reference
	DocTypeConfiguration DocType = "configuration" // configuration-heavy pages
	DocTypeReleaseNotes  DocType = "release-notes" // release notes, changelogs
	DocTypeTutorial      DocType = "tutorial"      // tutorials and guides
	DocTypeConcept       DocType = "concept"       // concept/how-to (default)
)

// ChunkConfig holds token sizing for one document type.
type ChunkConfig struct {
	Size    int // chunk size ceiling in tokens
	Overlap int // overlap tokens between window-split pieces
}

var configPathRe = regexp.MustCompile(`/docs/.*config`)

// DocTypeForURL infers the document type from the URL path.
func DocTypeForURL(url string) DocType {
	switch {
	case strings.Contains(url, "/api/") || strings.Contains(url, "/api-docs/") || strings.Contains(url, "/commands/"):
		return DocTypeReference
	case strings.Contains(url, "/configuration/") || configPathRe.MatchString(url):
		return DocTypeConfiguration
	case strings.Contains(url, "/release-notes") || strings.Contains(url, "/changelog") || strings.Contains(url, "/releases/"):
		return DocTypeReleaseNotes
	case strings.Contains(url, "/tutorials/") || strings.Contains(url, "/guides/"):
		return DocTypeTutorial
	default:
		return DocTypeConcept
	}
}

// ConfigForDocType returns the chunk sizing for a document type.
func ConfigForDocType(dt DocType) ChunkConfig {
	switch dt {
	case DocTypeReference:
		return ChunkConfig{Size: 500, Overlap: 75}
	case DocTypeConfiguration:
		return ChunkConfig{Size: 400, Overlap: 80}
	case DocTypeReleaseNotes:
		return ChunkConfig{Size: 600, Overlap: 60}
	case DocTypeTutorial:
		return ChunkConfig{Size: 900, Overlap: 135}
	default:
		return ChunkConfig{Size: 800, Overlap: 120}
	}
}

// ParentChunk is a coarse retrieval unit spanning a major (H2) section.
// Parents are never indexed directly; they supply expanded context for a
// retrieved child.
type ParentChunk struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Product     string `json:"product"`
	Content     string `json:"content"`
	HeadingPath string `json:"headingPath"`
}

// ChildChunk is the unit placed in both indexes and returned by search.
// Every child's ParentID resolves to an existing parent, except children
// produced by the degenerate no-structure fallback, which are flagged.
type ChildChunk struct {
	ID          string  `json:"id"`
	ParentID    string  `json:"parentId,omitempty"`
	URL         string  `json:"url"`
	Product     string  `json:"product"`
	Content     string  `json:"content"`
	HeadingPath string  `json:"headingPath"`
	Anchor      string  `json:"anchor,omitempty"`
	DocType     DocType `json:"docType"`
	TokenCount  int     `json:"tokenCount"`

	// Oversized marks an irreducible leaf kept whole above its ceiling.
	Oversized bool `json:"oversized,omitempty"`

	// Degenerate marks a child from the no-section-structure fallback;
	// such children have no parent.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *ChildChunk) Validate() error {
	if c.URL == "" {
		return Errorf(EINVALID, "chunk URL required")
	}
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	if c.ParentID == "" && !c.Degenerate {
		return Errorf(EINVALID, "chunk parent ID required")
	}
	return nil
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// EstimateTokens is the tokenizer-free fallback: roughly 4 characters per
// token. Used whenever a model tokenizer is unavailable or fails, so token
// counting never aborts the pipeline.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Chunker converts one page into its retrieval units.
type Chunker interface {
	Chunk(ctx context.Context, page *PageRecord) ([]ParentChunk, []ChildChunk, error)
}

// ChunkStore persists the chunk set derived from the corpus, enabling the
// chunking stage to be resumed and the lexical index to be rebuilt cheaply.
type ChunkStore interface {
	// ReplaceAll atomically replaces the stored chunk set.
	ReplaceAll(ctx context.Context, parents []ParentChunk, children []ChildChunk) error

	// LoadChildren returns all stored child chunks.
	// Returns ENOTFOUND if the store is empty.
	LoadChildren(ctx context.Context) ([]ChildChunk, error)

	// FindParent returns the parent chunk with the given id.
	// Returns ENOTFOUND if it does not exist.
	FindParent(ctx context.Context, id string) (*ParentChunk, error)
}
