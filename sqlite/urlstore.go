package sqlite

import (
	"context"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.URLStore = (*URLStore)(nil)

// URLStore implements docsearch.URLStore using SQLite. Discovery runs save
// their result here so an interrupted index build can resume without
// re-crawling the sitemap.
type URLStore struct {
	db *DB
}

// NewURLStore creates a new URLStore.
func NewURLStore(db *DB) *URLStore {
	return &URLStore{db: db}
}

// SaveURLList replaces the stored URL set.
func (s *URLStore) SaveURLList(ctx context.Context, records []docsearch.URLRecord) error {
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM url_records"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO url_records (url, product, last_modified, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			product = excluded.product,
			last_modified = excluded.last_modified
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.URL, rec.Product, rec.LastModified, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadURLList returns the stored URL set in discovery order.
func (s *URLStore) LoadURLList(ctx context.Context) ([]docsearch.URLRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, product, last_modified
		FROM url_records
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []docsearch.URLRecord
	for rows.Next() {
		var rec docsearch.URLRecord
		if err := rows.Scan(&rec.URL, &rec.Product, &rec.LastModified); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "no URL list saved")
	}

	return records, nil
}
