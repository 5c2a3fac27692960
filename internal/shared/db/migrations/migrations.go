package migrations

import (
	"errors"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// RunMigrations applies every pending migration found at sourceURL (file://...) to the database at dbURL
func RunMigrations(sourceURL, dbURL string) error {
	log.Info("RunMigrations", zap.String("source", sourceURL))
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn("RunMigrations: close failed", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrations: version: %w", err)
	}
	log.Info("Database schema up to date", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
