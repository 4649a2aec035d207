package persistence_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chriscoletech/qwen-gateway/internal/config"
	"github.com/chriscoletech/qwen-gateway/internal/persistence"
)

// openTestDB opens a fresh, migrated in-memory SQLite database for one
// test. "cache=shared" keeps the in-memory schema alive across the
// pooled connections persistence.Open opens under WAL mode.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := persistence.Open(config.PersistenceConfig{Path: "file::memory:?cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}
