// Package db owns database connectivity and schema migration.
package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teiftn/facture/internal/models"
)

// Connect opens the database designated by dsn. URL-style and key=value DSNs
// go to postgres; anything else (a file path or file: URI) goes to sqlite,
// which keeps local development and tests free of a running server.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	if isPostgresDSN(dsn) {
		var db *gorm.DB
		var err error
		// Retry to let postgres finish starting in compose setups.
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				return db, nil
			}
			time.Sleep(2 * time.Second)
		}
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return true
	}
	for _, key := range []string{"host=", "user=", "dbname="} {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}

// AutoMigrate applies the GORM schema for all application models.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range []any{
		&models.User{},
		&models.Partner{},
		&models.Invoice{},
		&models.InvoiceLine{},
		&models.AllowanceCharge{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}
