// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/unclebandit/prospecting-dashboard/internal/db"
)

// Open returns a migrated sqlite database that lives for the test only.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// a single connection keeps writers from tripping over SQLITE_BUSY
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}
