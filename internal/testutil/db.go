// Package testutil provides a throwaway SQLite database with the full schema
// for repository, service and router tests.
package testutil

import (
	"path/filepath"
	"testing"

	"yamdb/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated database stored under t.TempDir(). Foreign keys are
// enforced and a single connection is used so concurrent writers queue up
// instead of failing with SQLITE_BUSY.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "yamdb.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Setup(db))
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}
