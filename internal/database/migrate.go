package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"tasklist/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded migrations for the configured driver. It uses
// its own connection because closing the migrator closes the database handle.
func Migrate(cfg *config.Config, log *zap.Logger) error {
	if cfg == nil || !cfg.MigrationsEnabled {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	src, err := iofs.New(migrationsFS, "migrations/"+cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var (
		sqlDB  *sql.DB
		driver migratedb.Driver
	)
	switch cfg.DBDriver {
	case DriverPostgres:
		if sqlDB, err = sql.Open("pgx", cfg.PostgresDSN()); err != nil {
			return err
		}
		if err = sqlDB.Ping(); err == nil {
			driver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
		}
	case DriverSQLite:
		if err = ensureDir(cfg.SQLitePath); err != nil {
			return err
		}
		if sqlDB, err = sql.Open("sqlite3", SQLiteDSN(cfg.SQLitePath)); err != nil {
			return err
		}
		driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, cfg.DBDriver, driver)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("init migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("database migrations applied",
		zap.String("driver", cfg.DBDriver),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
