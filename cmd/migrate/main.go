package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	pgstore "github.com/dwarvesf/swap-history/internal/store/postgres"
	"github.com/dwarvesf/swap-history/internal/utils/config"
	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

func runMigrations(db *gorm.DB, dir string, down bool, logger *logger.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database connection")
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create postgres driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "failed to read schema version")
	}
	logger.Info("Migrations completed successfully", map[string]string{
		"version": strconv.FormatUint(uint64(version), 10),
		"dirty":   strconv.FormatBool(dirty),
	})
	return nil
}

func main() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("migrations", "schema")
	}
	down := len(os.Args) > 1 && os.Args[1] == "down"

	db := pgstore.New(appConfig, logger)

	if err := runMigrations(db, dir, down, logger); err != nil {
		logger.Error("[main][runMigrations] failed to run migrations", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
