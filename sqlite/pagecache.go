package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.PageCache = (*PageCache)(nil)

// PageCache implements docsearch.PageCache using SQLite. Pages are keyed by
// a hash of their URL. A cached entry is honored only while the sitemap's
// lastmod for the URL is unchanged.
type PageCache struct {
	db *DB
}

// NewPageCache creates a new PageCache.
func NewPageCache(db *DB) *PageCache {
	return &PageCache{db: db}
}

// Get returns the cached page for the URL, or ENOTFOUND on miss or when the
// stored last-modified no longer matches lastModified.
func (c *PageCache) Get(ctx context.Context, url string, lastModified string) (*docsearch.PageRecord, error) {
	var page docsearch.PageRecord
	var sections string

	err := c.db.QueryRowContext(ctx, `
		SELECT url, product, last_modified, title, content, sections
		FROM pages
		WHERE key = ?
	`, hashKey(url)).Scan(&page.URL, &page.Product, &page.LastModified, &page.Title, &page.Content, &sections)

	if err == sql.ErrNoRows {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "page not cached")
	}
	if err != nil {
		return nil, err
	}

	if lastModified != "" && page.LastModified != lastModified {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "cached page is stale")
	}

	if err := json.Unmarshal([]byte(sections), &page.Sections); err != nil {
		return nil, fmt.Errorf("failed to parse cached sections: %w", err)
	}

	return &page, nil
}

// Put stores the page, replacing any previous entry for its URL.
func (c *PageCache) Put(ctx context.Context, page *docsearch.PageRecord) error {
	if err := page.Validate(); err != nil {
		return err
	}

	sections, err := json.Marshal(page.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode sections: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO pages (key, url, product, last_modified, title, content, sections, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			url = excluded.url,
			product = excluded.product,
			last_modified = excluded.last_modified,
			title = excluded.title,
			content = excluded.content,
			sections = excluded.sections,
			fetched_at = excluded.fetched_at
	`, hashKey(page.URL), page.URL, page.Product, page.LastModified, page.Title, page.Content,
		string(sections), time.Now().UTC().Format(time.RFC3339))

	return err
}
