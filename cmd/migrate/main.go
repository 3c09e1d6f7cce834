package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	product "github.com/rowncoffee/rown-backend/internal/products"
	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/db"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"github.com/rowncoffee/rown-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type dbCommand func(ctx context.Context, sqlDB *sql.DB, opts options) error

var dbCommands = map[string]dbCommand{
	"up": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, "up")
	},
	"down": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, "down")
	},
	"redo": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, "redo")
	},
	"status": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		return migrate.Run(ctx, sqlDB, opts.dir, "status")
	},
	"version": func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		if opts.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	},
}

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|redo|status|version|create|validate")
	var opts options
	flag.StringVar(&opts.dir, "dir", "", "goose migrations directory (empty uses the migrations compiled into the binary)")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmd, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd string, opts options) error {
	_ = godotenv.Load()

	switch cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		target := opts.dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil

	case "validate":
		validate := migrate.ValidateEmbedded
		if opts.dir != "" {
			validate = func() error { return migrate.ValidateDir(opts.dir) }
		}
		if err := validate(); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	command, ok := dbCommands[cmd]
	if !ok {
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": cmd, "dir": opts.dir})

	if !cfg.DB.Configured() {
		return fmt.Errorf("%s is required for -cmd=%s", config.EnvDBDSN, cmd)
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	logg.Info(ctx, "migrate.start")
	if err := command(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}

	if cmd == "up" || cmd == "redo" {
		reportCatalog(ctx, logg, dbClient)
	}
	logg.Info(ctx, "migrate.done")
	return nil
}

// reportCatalog logs how many products the storefront will list after migrating.
func reportCatalog(ctx context.Context, logg *logger.Logger, dbClient *db.Client) {
	available, err := product.NewRepository(dbClient.DB()).ListAvailable(ctx)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "migrate.catalog_check_failed")
		return
	}
	logg.Info(logg.WithField(ctx, "available_products", len(available)), "migrate.catalog_ready")
}
