package database

import (
	"fmt"

	"distribution-service/internal/model"
	"distribution-service/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the configured database, applies pool settings and migrates the models
func InitDB(dbConfig *config.DBConfig) (*gorm.DB, error) {
	db, err := Open(dbConfig)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects without migrating
func Open(dbConfig *config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case "sqlite":
		dialector = sqlite.Open(dbConfig.SQLitePath)
	default:
		dialector = postgres.New(postgres.Config{
			DSN:                  dbConfig.GetDSN(),
			PreferSimpleProtocol: true, // Disables implicit prepared statement usage
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(dbConfig.LogLevel),
		// list items keep their agent id after the agent is deleted
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	switch {
	case dbConfig.Driver == "sqlite":
		// one writer at a time, otherwise concurrent uploads fail with "database is locked"
		sqlDB.SetMaxOpenConns(1)
	case dbConfig.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}

	return db, nil
}

// Migrate creates or updates the tables for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Admin{}, &model.Agent{}, &model.ListItem{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
