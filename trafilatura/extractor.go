// Package trafilatura provides a heuristic fallback extractor for pages
// where selector-based extraction finds no content region.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/docsearch"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements docsearch.Extractor at compile time.
var _ docsearch.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
// The extraction discards document structure, so no heading metadata is
// returned; anchors are regenerated from heading text downstream.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*docsearch.ExtractResult, error) {
	if rawHTML == "" {
		return nil, docsearch.Errorf(docsearch.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &docsearch.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
