package config

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "task-manager.com/task-manager/internal/models"
)

// NewDatabaseClient opens the sqlite database at dsn. It does not migrate.
func NewDatabaseClient(dsn, logLevel string) *gorm.DB {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		log.Fatal(err)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	return db
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func parseLogLevel(v string) (logger.LogLevel, error) {
	switch v {
	case "", "warn":
		return logger.Warn, nil
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "info":
		return logger.Info, nil
	default:
		return 0, fmt.Errorf("DB_LOG_LEVEL must be silent, error, warn or info, got %q", v)
	}
}
