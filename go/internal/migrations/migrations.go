package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var files embed.FS

// Manager applies the embedded schema migrations to a Postgres database.
type Manager struct {
	db *sql.DB
}

// NewManager creates a migration manager for db.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}

// Up applies every pending migration.
func (m *Manager) Up() error {
	migrator, err := m.migrator()
	if err != nil {
		return err
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("no migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("migrations applied successfully")
	return nil
}

// Down rolls back every applied migration.
func (m *Manager) Down() error {
	migrator, err := m.migrator()
	if err != nil {
		return err
	}

	err = migrator.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	log.Info().Msg("migrations rolled back successfully")
	return nil
}

// Version returns the current schema version; zero when nothing has been applied.
func (m *Manager) Version() (uint, bool, error) {
	migrator, err := m.migrator()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, dirty, nil
}
