package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	db, err := Open("sqlite://" + path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable("grading_results"))
}

func TestOpenRejectsEmptyURLs(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)

	_, err = Open("sqlite://")
	require.Error(t, err)
}
