package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a throwaway audit history store in t.TempDir(): the
// usual write/read pool pair with all migrations applied to the write side.
//
// Tests that don't care about the read/write split can use writeDB for both.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit-history.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	if err != nil {
		t.Fatalf("open audit history store: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("migrate audit history store: %v", err)
	}

	return writeDB, readDB
}
