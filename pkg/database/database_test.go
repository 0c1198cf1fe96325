package database

import (
	"path/filepath"
	"testing"

	"distribution-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitDBMigratesSQLite(t *testing.T) {
	db, err := InitDB(&config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "init.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	for _, table := range []string{"admins", "agents", "list_items"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("list_items", "idx_list_items_original_file_name"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
