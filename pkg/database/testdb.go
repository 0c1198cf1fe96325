package database

import (
	"path/filepath"
	"testing"

	"distribution-service/pkg/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated SQLite database stored in the test's temp dir
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(&config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
