// Package database opens the SQLite database and migrates its tables.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/media"
	"igfeed/pkg/options"
	"igfeed/pkg/registry"
	"igfeed/pkg/transient"
)

const busyTimeoutMS = 5000

// Open opens the database described by cfg
func Open(cfg config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	log = logger.OrDefault(log)

	if dir := filepath.Dir(cfg.Path); dir != "" && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(buildDSN(cfg.Path)), &gorm.Config{
		Logger: newGormLogger(log, parseLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.WithField("path", cfg.Path).Debug("Database opened")
	return db, nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Models lists every table owned by the service
func Models() []interface{} {
	return []interface{}{
		&options.Record{},
		&transient.Record{},
		&registry.Image{},
		&media.Attachment{},
	}
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func buildDSN(path string) string {
	pragmas := fmt.Sprintf("_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", busyTimeoutMS)
	if path == ":memory:" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

func parseLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "info", "debug":
		return gormlogger.Info
	case "warn", "warning":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
