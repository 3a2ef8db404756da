package sqlite

import (
	"context"
	"database/sql"

	"github.com/fwojciec/docsearch"
)

// Compile-time interface verification.
var _ docsearch.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements docsearch.ChunkStore using SQLite. The stored chunk
// set lets an interrupted embedding build resume and the lexical index be
// rebuilt without re-fetching pages.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore.
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// ReplaceAll atomically replaces the stored chunk set.
func (s *ChunkStore) ReplaceAll(ctx context.Context, parents []docsearch.ParentChunk, children []docsearch.ChildChunk) error {
	for i := range children {
		if err := children[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM child_chunks"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM parent_chunks"); err != nil {
		return err
	}

	parentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parent_chunks (id, url, product, content, heading_path)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer parentStmt.Close()

	for _, p := range parents {
		if _, err := parentStmt.ExecContext(ctx, p.ID, p.URL, p.Product, p.Content, p.HeadingPath); err != nil {
			return err
		}
	}

	childStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO child_chunks (id, parent_id, url, product, content, heading_path, anchor, doc_type, token_count, oversized, degenerate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer childStmt.Close()

	for _, c := range children {
		if _, err := childStmt.ExecContext(ctx, c.ID, c.ParentID, c.URL, c.Product, c.Content,
			c.HeadingPath, c.Anchor, string(c.DocType), c.TokenCount,
			boolToInt(c.Oversized), boolToInt(c.Degenerate)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadChildren returns all stored child chunks.
func (s *ChunkStore) LoadChildren(ctx context.Context) ([]docsearch.ChildChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, url, product, content, heading_path, anchor, doc_type, token_count, oversized, degenerate
		FROM child_chunks
		ORDER BY url, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []docsearch.ChildChunk
	for rows.Next() {
		var c docsearch.ChildChunk
		var docType string
		var oversized, degenerate int
		if err := rows.Scan(&c.ID, &c.ParentID, &c.URL, &c.Product, &c.Content,
			&c.HeadingPath, &c.Anchor, &docType, &c.TokenCount, &oversized, &degenerate); err != nil {
			return nil, err
		}
		c.DocType = docsearch.DocType(docType)
		c.Oversized = oversized != 0
		c.Degenerate = degenerate != 0
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(children) == 0 {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "no chunks stored")
	}

	return children, nil
}

// FindParent returns the parent chunk with the given id.
func (s *ChunkStore) FindParent(ctx context.Context, id string) (*docsearch.ParentChunk, error) {
	var p docsearch.ParentChunk

	err := s.db.QueryRowContext(ctx, `
		SELECT id, url, product, content, heading_path
		FROM parent_chunks
		WHERE id = ?
	`, id).Scan(&p.ID, &p.URL, &p.Product, &p.Content, &p.HeadingPath)

	if err == sql.ErrNoRows {
		return nil, docsearch.Errorf(docsearch.ENOTFOUND, "parent chunk not found")
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
