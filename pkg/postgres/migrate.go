package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending migrations found at path.
func RunMigrations(path string, dsn string) error {
	const op = "postgres.RunMigrations"

	if err := withMigrate(path, dsn, func(m *migrate.Migrate) error {
		return m.Up()
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RollbackMigrations reverts the last steps migrations, or all of them when steps is zero or less.
func RollbackMigrations(path string, dsn string, steps int) error {
	const op = "postgres.RollbackMigrations"

	if err := withMigrate(path, dsn, func(m *migrate.Migrate) error {
		if steps <= 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MigrationVersion reports the currently applied schema version.
// A database with no migrations applied reports version 0.
func MigrationVersion(path string, dsn string) (version uint, dirty bool, err error) {
	const op = "postgres.MigrationVersion"

	err = withMigrate(path, dsn, func(m *migrate.Migrate) error {
		var vErr error
		version, dirty, vErr = m.Version()
		if errors.Is(vErr, migrate.ErrNilVersion) {
			return nil
		}
		return vErr
	})
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	return version, dirty, nil
}

func withMigrate(path, dsn string, fn func(m *migrate.Migrate) error) error {
	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
