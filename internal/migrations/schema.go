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

// sqlFS contains the embedded SQL migration files.
//
//go:embed sql/*.sql
var sqlFS embed.FS

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	if db == nil {
		return nil, errors.New("migrations: db cannot be nil")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrations: create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(sqlFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: init migrate instance: %w", err)
	}
	return m, nil
}

// Up applies all pending database migrations. It is safe to call multiple
// times; when the database schema is up to date, the function is a no-op.
func Up(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	currentVersion := uint(0)
	if v, dirty, verr := m.Version(); verr == nil {
		currentVersion = v
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("migrations: current database schema version")
	} else if errors.Is(verr, migrate.ErrNilVersion) {
		log.Info().Msg("migrations: no existing migration version (fresh database)")
	} else {
		log.Warn().Err(verr).Msg("migrations: unable to determine current version")
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Uint("version", currentVersion).Msg("migrations: no new migrations to apply; database is up to date")
			return nil
		}
		return fmt.Errorf("migrations: apply: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		log.Info().Uint("version", v).Msg("migrations: successfully applied migrations")
	} else {
		log.Warn().Err(err).Msg("migrations: applied migrations but failed to read new version")
	}

	return nil
}

// Version reports the applied schema version. A fresh database yields 0, false, nil.
func Version(db *sql.DB) (uint, bool, error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrations: read version: %w", err)
	}
	return v, dirty, nil
}

// FixDirtyDatabase rolls the recorded version back one step when the last
// migration failed halfway, so the next Up re-runs it. Clean databases are
// left untouched.
func FixDirtyDatabase(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info().Msg("migrations: fresh database; nothing to fix")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrations: read version: %w", err)
	}
	if !dirty {
		log.Info().Uint("version", v).Msg("migrations: database is clean; nothing to fix")
		return nil
	}

	target := int(v) - 1
	if target < 1 {
		target = -1
	}
	if err := m.Force(target); err != nil {
		return fmt.Errorf("migrations: force version %d: %w", target, err)
	}
	log.Warn().Uint("dirty_version", v).Int("forced_version", target).Msg("migrations: cleared dirty flag")
	return nil
}

// ForceVersion records version as applied without running any migration.
func ForceVersion(db *sql.DB, version uint) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("migrations: force version %d: %w", version, err)
	}
	return nil
}
