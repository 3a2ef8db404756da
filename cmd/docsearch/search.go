package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/docsearch"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	query := strings.Join(c.Query, " ")

	results, err := deps.Searcher.Search(deps.Ctx, query, docsearch.SearchOptions{
		TopK:        c.TopK,
		Product:     c.Product,
		ExpandQuery: c.Expand,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results. Run 'docsearch index' if the index has not been built yet.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(deps.Stdout, "%d. [%.3f] %s\n", i+1, r.Score, r.URL)
		if r.HeadingPath != "" {
			fmt.Fprintf(deps.Stdout, "   %s\n", r.HeadingPath)
		}
		fmt.Fprintf(deps.Stdout, "   %s\n\n", snippet(r.Text, 240))
	}
	return nil
}

// snippet trims text to a display length at a word boundary.
func snippet(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}
	cut := text[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
