package db

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	for _, mode := range []string{"write", "read"} {
		t.Run(mode, func(t *testing.T) {
			dsn := buildDSN("/tmp/history.sqlite", mode)

			assert.True(t, strings.HasPrefix(dsn, "/tmp/history.sqlite?"))
			assert.Contains(t, dsn, "_journal_mode=WAL")
			assert.Contains(t, dsn, "_busy_timeout=5000")
			assert.Contains(t, dsn, "_synchronous=NORMAL")
			assert.Contains(t, dsn, "_foreign_keys=on")
			if mode == "write" {
				assert.Contains(t, dsn, "_txlock=immediate")
			} else {
				assert.NotContains(t, dsn, "_txlock")
			}
		})
	}
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "history.sqlite"), "invalid", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_WritePragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "history.sqlite"), "write", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	// A single writer keeps WAL checkpoints serial.
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpenSQLite_ReadPoolSizing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	wdb, err := OpenSQLite(path, "write", 0)
	require.NoError(t, err)
	require.NoError(t, wdb.Close())

	db, err := OpenSQLite(path, "read", 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Equal(t, 8, db.Stats().MaxOpenConnections)

	fallback, err := OpenSQLite(path, "read", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fallback.Close() })
	assert.Equal(t, 4, fallback.Stats().MaxOpenConnections)
}

func TestOpenSQLitePair_RunsVisibleAcrossPools(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(
		"INSERT INTO audit_runs (id, direction, root_identity, status, started_at) VALUES (?, ?, ?, ?, datetime('now'))",
		"run-1", "descendant", "Domain Admins", "RUNNING",
	)
	require.NoError(t, err)

	var root string
	require.NoError(t, readDB.QueryRow("SELECT root_identity FROM audit_runs WHERE id = ?", "run-1").Scan(&root))
	assert.Equal(t, "Domain Admins", root)
}

func TestOpenSQLitePair_ConcurrentReaders(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	for i := 0; i < 50; i++ {
		_, err := writeDB.Exec(
			"INSERT INTO audit_runs (id, direction, root_identity, status, started_at) VALUES (?, ?, ?, ?, datetime('now'))",
			fmt.Sprintf("run-%d", i), "ancestor", "alice", "COMPLETED",
		)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			var count int
			errs[idx] = readDB.QueryRow("SELECT count(*) FROM audit_runs").Scan(&count)
		}(i)
	}
	wg.Wait()

	for i, e := range errs {
		assert.NoError(t, e, "reader %d failed", i)
	}
}

func TestOpenSQLitePair_BusyTimeoutCoversMixedLoad(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(
		"INSERT INTO audit_runs (id, direction, root_identity, status, started_at, object_count) VALUES (?, ?, ?, ?, datetime('now'), 0)",
		"run-1", "descendant", "staff", "RUNNING",
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	writeErrs := make([]error, 20)
	readErrs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec("UPDATE audit_runs SET object_count = object_count + 1 WHERE id = ?", "run-1")
		}(i)
		go func(idx int) {
			defer wg.Done()
			var n int
			readErrs[idx] = readDB.QueryRow("SELECT object_count FROM audit_runs WHERE id = ?", "run-1").Scan(&n)
		}(i)
	}
	wg.Wait()

	for i, e := range writeErrs {
		assert.NoError(t, e, "writer %d failed", i)
	}
	for i, e := range readErrs {
		assert.NoError(t, e, "reader %d failed", i)
	}

	var n int
	require.NoError(t, readDB.QueryRow("SELECT object_count FROM audit_runs WHERE id = ?", "run-1").Scan(&n))
	assert.Equal(t, 20, n)
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/history.sqlite", "write", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLitePair_WriteOpenFailure(t *testing.T) {
	_, _, err := OpenSQLitePair("/nonexistent/dir/history.sqlite", 4)
	require.Error(t, err)
}
