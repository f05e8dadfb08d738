package database

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&notes.Record{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, log); err != nil {
		return nil, err
	}

	if log != nil {
		log.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
