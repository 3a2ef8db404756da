package main

import (
	"context"
	"io"

	"github.com/fwojciec/docsearch"
	"github.com/fwojciec/docsearch/index"
)

// Manager is the index lifecycle surface the CLI needs.
type Manager interface {
	Initialize(ctx context.Context, force bool) error
	Status() *index.Status
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Manager  Manager
	Searcher docsearch.SearchService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Index  IndexCmd  `cmd:"" help:"Build or update the documentation index"`
	Search SearchCmd `cmd:"" help:"Search the indexed documentation"`
	Status StatusCmd `cmd:"" help:"Show index freshness and build progress"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	Force       bool   `short:"f" help:"Rebuild even if the index is fresh"`
	Feed        string `default:"https://developer.hashicorp.com/sitemap.xml" help:"Sitemap feed URL"`
	MaxPages    int    `help:"Cap on pages to crawl (0 = all)"`
	Concurrency int    `short:"c" default:"5" help:"Concurrent fetch limit"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query   []string `arg:"" help:"Search query"`
	TopK    int      `short:"k" default:"5" help:"Number of results"`
	Product string   `short:"p" help:"Restrict results to one product"`
	Expand  bool     `help:"Append domain synonyms to the query"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
