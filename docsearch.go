// Package docsearch provides a searchable index over a corpus of technical
// documentation. It discovers page URLs from a sitemap feed, extracts
// structured content from HTML, chunks it into a parent/child hierarchy,
// maintains a lexical and a semantic index in parallel, and serves hybrid
// search with two-stage reranking.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, bleve/, hnsw/, gemini/).
package docsearch
