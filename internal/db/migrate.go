package db

import (
	"errors"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunSQLMigrations executes versioned SQL migrations from dir against a
// postgres DSN. Used in production; development relies on AutoMigrate.
func RunSQLMigrations(dsn, dir string) error {
	if !isPostgresDSN(dsn) {
		return errors.New("sql migrations require a postgres DSN")
	}
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
