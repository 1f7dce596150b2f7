package storage

import (
	"path/filepath"
	"testing"
)

// openTestDB opens a fresh on-disk database in t.TempDir(), closed
// automatically via t.Cleanup.
func openTestDB(t *testing.T, dim int) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, dim)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
