package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docsearch/sqlite"
	"github.com/stretchr/testify/require"
)

// mustOpenDB returns an open in-memory database, closed on test cleanup.
func mustOpenDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates schema on first open", func(t *testing.T) {
		t.Parallel()

		db := mustOpenDB(t)
		ctx := context.Background()

		for _, table := range []string{"url_records", "pages", "parent_chunks", "child_chunks"} {
			var count int
			err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
			require.NoError(t, err, "table %s missing", table)
		}
	})

	t.Run("returns error for invalid path", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB("/nonexistent/path/db.sqlite")
		require.Error(t, db.Open())
	})

	t.Run("enables WAL mode for file-based databases", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(t.TempDir() + "/test.db")
		require.NoError(t, db.Open())
		defer db.Close()

		var journalMode string
		err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})
}
