// Package htmltomarkdown converts extracted HTML content into Markdown
// suitable for chunking and indexing.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/docsearch"
)

// Ensure Converter implements docsearch.Converter at compile time.
var _ docsearch.Converter = (*Converter)(nil)

// blankRunRe matches runs of three or more newlines, optionally with
// whitespace on the blank lines.
var blankRunRe = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)

// Converter wraps html-to-markdown to convert HTML to Markdown.
// Tables are preserved as Markdown tables so configuration reference
// pages keep their parameter listings intact.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. Runs of blank lines are
// collapsed to a single blank line so chunk token estimates stay stable.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", docsearch.Errorf(docsearch.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return blankRunRe.ReplaceAllString(result, "\n\n"), nil
}
