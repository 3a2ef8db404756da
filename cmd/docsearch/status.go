package main

import (
	"fmt"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	status := deps.Manager.Status()

	if !status.Initialized {
		fmt.Fprintln(deps.Stdout, "Index: not built")
		if status.Progress != nil && status.Progress.Completed < status.Progress.Total {
			fmt.Fprintf(deps.Stdout, "Embeddings: %d/%d (interrupted; run 'docsearch index' to resume)\n",
				status.Progress.Completed, status.Progress.Total)
		} else {
			fmt.Fprintln(deps.Stdout, "Run 'docsearch index' to build it.")
		}
		return nil
	}

	meta := status.Metadata
	fmt.Fprintf(deps.Stdout, "Index: ready (version %s)\n", meta.Version)
	fmt.Fprintf(deps.Stdout, "Pages: %d\n", meta.PageCount)
	fmt.Fprintf(deps.Stdout, "Model: %s\n", meta.ModelName)
	fmt.Fprintf(deps.Stdout, "Chunking: %d tokens, %d overlap\n", meta.ChunkSizeTokens, meta.ChunkOverlapTokens)
	fmt.Fprintf(deps.Stdout, "Updated: %s\n", meta.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	if status.Stale {
		fmt.Fprintln(deps.Stdout, "The index is stale; run 'docsearch index' to refresh it.")
	}
	return nil
}
