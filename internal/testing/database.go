// Package testing provides database fixtures shared by classdb tests.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teranos/classdb/db"
)

// CreateTestDB creates a migrated SQLite database in t.TempDir().
// A file is used rather than :memory: because readers and writers need
// separate pooled connections to see the same data.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "classdb.db"), nil)
	require.NoError(t, err, "Failed to create test database")

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}
