package services

import (
	"database/sql"
	"testing"

	"github.com/avelar/taskboard-be/internal/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New("file::memory:")
	require.NoError(t, err)
	// A pooled second connection would see its own empty in-memory
	// database, so keep everything on one.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}
