package test_utils

import (
	"database/sql"
	"io/fs"
	"testing"

	"github.com/moneta-finance/moneta/internal/database"
)

// NewInMemoryDB creates a new in-memory SQLite database for testing.
// Each database is completely isolated from others.
func NewInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.InMemory)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SetupTestDB creates a new in-memory SQLite database and applies the
// migrations found in dir of migrations.
func SetupTestDB(t *testing.T, migrations fs.FS, dir string) *sql.DB {
	t.Helper()

	db := NewInMemoryDB(t)
	if err := database.Migrate(db, migrations, dir); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db
}
