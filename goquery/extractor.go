// Package goquery provides CSS-selector based HTML processing: main content
// extraction with heading metadata, and link extraction for discovery crawls.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docsearch"
)

// contentSelectors are tried in order; the first match with text wins.
var contentSelectors = []string{
	"main",
	"article",
	"#content",
	".content",
	"body",
}

// chromeSelectors identify page chrome removed before extraction.
var chromeSelectors = []string{
	"script",
	"style",
	"nav",
	"header",
	"footer",
	"aside",
	"noscript",
}

var _ docsearch.Extractor = (*Extractor)(nil)

// Extractor pulls the main content region out of a documentation page.
// Unlike heuristic readability extraction it preserves document structure,
// so heading anchor ids survive into the result.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses HTML and returns the title, the main content region's HTML,
// and the headings found within it.
func (e *Extractor) Extract(html string) (*docsearch.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find(strings.Join(chromeSelectors, ", ")).Remove()

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 && strings.TrimSpace(sel.Text()) != "" {
			content = sel
			break
		}
	}
	if content == nil {
		return nil, docsearch.Errorf(docsearch.EINVALID, "no content found in HTML")
	}

	contentHTML, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, docsearch.Errorf(docsearch.EINTERNAL, "failed to render content HTML: %v", err)
	}

	var headings []docsearch.Heading
	content.Find("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		level := 1
		switch goquery.NodeName(sel) {
		case "h2":
			level = 2
		case "h3":
			level = 3
		}

		anchor, _ := sel.Attr("id")
		if anchor == "" {
			// Docusaurus-style pages put the id on a nested anchor element.
			anchor, _ = sel.Find("a[id]").First().Attr("id")
		}

		headings = append(headings, docsearch.Heading{
			Level:    level,
			Text:     text,
			AnchorID: anchor,
		})
	})

	return &docsearch.ExtractResult{
		Title:       title,
		ContentHTML: contentHTML,
		Headings:    headings,
	}, nil
}
