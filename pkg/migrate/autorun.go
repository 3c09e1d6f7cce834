package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/db"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

// MaybeRunDev brings the local schema and seed menu up to date when the API
// starts in dev with ROWN_AUTO_MIGRATE set. It is a no-op everywhere else.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"schema_version": version,
	}), "migrate.autorun_done")
	return nil
}
