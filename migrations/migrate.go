// Package migrations embeds the forward-only schema migrations and applies them with golang-migrate
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	"github.com/rs/zerolog"
)

//go:embed *.sql
var FS embed.FS

// Status describes the tracked schema version
type Status struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Up applies every pending migration. A failing file aborts the batch and leaves the version dirty.
func Up(databaseURL string, logger zerolog.Logger) error {
	m, err := newMigrator(databaseURL, logger)
	if err != nil {
		return err
	}
	defer closeMigrator(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema is up to date")
	return nil
}

// CurrentStatus reports the applied version without changing anything
func CurrentStatus(databaseURL string, logger zerolog.Logger) (*Status, error) {
	m, err := newMigrator(databaseURL, logger)
	if err != nil {
		return nil, err
	}
	defer closeMigrator(m, logger)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	return &Status{Version: version, Dirty: dirty, Applied: true}, nil
}

func newMigrator(databaseURL string, logger zerolog.Logger) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// the driver owns db from here on and closes it with the migrator
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("init migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = migrateLogger{logger: logger}
	return m, nil
}

func closeMigrator(m *migrate.Migrate, logger zerolog.Logger) {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Warn().Err(sourceErr).Msg("close migration source")
	}
	if dbErr != nil {
		logger.Warn().Err(dbErr).Msg("close migration database")
	}
}

type migrateLogger struct {
	logger zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.logger.GetLevel() <= zerolog.DebugLevel
}
