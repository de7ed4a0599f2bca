package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moneta-finance/moneta/internal/database"
	"github.com/moneta-finance/moneta/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrations = os.DirFS("testdata")

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.db")

	db, err := database.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestMigrate_IsRepeatable(t *testing.T) {
	db := test_utils.SetupTestDB(t, migrations, "migrations")

	require.NoError(t, database.Migrate(db, migrations, "migrations"))

	_, err := db.Exec("INSERT INTO notes (body) VALUES (?)", "hello")
	require.NoError(t, err)
	var body string
	require.NoError(t, db.QueryRow("SELECT body FROM notes").Scan(&body))
	assert.Equal(t, "hello", body)
}

func TestMigrate_MissingDirectory(t *testing.T) {
	db := test_utils.NewInMemoryDB(t)

	err := database.Migrate(db, os.DirFS(t.TempDir()), "migrations")

	assert.Error(t, err)
}
