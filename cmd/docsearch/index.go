package main

import (
	"fmt"

	"github.com/fwojciec/docsearch"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	if err := deps.Manager.Initialize(deps.Ctx, c.Force); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docsearch.ErrorMessage(err))
		return err
	}

	status := deps.Manager.Status()
	if status.Metadata != nil {
		fmt.Fprintf(deps.Stdout, "Index ready: %d pages, version %s\n",
			status.Metadata.PageCount, status.Metadata.Version)
	} else {
		fmt.Fprintln(deps.Stdout, "Index ready")
	}
	return nil
}
