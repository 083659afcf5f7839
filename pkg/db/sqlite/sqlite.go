// Package sqlite opens the embedded store used for single-node deployments
// and tests.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	// one writer keeps BEGIN IMMEDIATE semantics simple
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenTest creates a database in a temporary directory with schema applied.
func OpenTest(t *testing.T, schema string) *sql.DB {
	db, err := Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if schema != "" {
		MustMigrate(db, schema)
	}
	return db
}

func MustMigrate(db *sql.DB, migration string) {
	if _, err := db.Exec(migration); err != nil {
		panic(fmt.Errorf("error while migrating database: %s", err))
	}
}
