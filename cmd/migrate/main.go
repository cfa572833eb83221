package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

const serviceKind = "migrate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|redo|version|create|validate|list")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// File-only commands work without a reachable database or a full config.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	case "list":
		files, err := migrate.ListMigrations(opts.dir)
		if err != nil {
			return err
		}
		for _, m := range files {
			fmt.Printf("%s  %s\n", m.Version, m.File)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if cfg.FeatureFlags.UseSQLite {
		return runSQLite(ctx, logg, cfg, opts.cmd)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	switch opts.cmd {
	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	default:
		err = migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migration command finished")
	return nil
}

// runSQLite builds the schema from the gorm models. The goose files use
// Postgres types, so only "up" is supported against SQLite.
func runSQLite(ctx context.Context, logg *logger.Logger, cfg *config.Config, cmd string) error {
	if cmd != "up" {
		return fmt.Errorf("-cmd=%s is not supported with sqlite", cmd)
	}
	dbClient, err := db.NewSQLite(ctx, cfg.DB.SQLitePath, logg)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer dbClient.Close()

	if err := dbClient.DB().WithContext(ctx).AutoMigrate(migrate.Models()...); err != nil {
		return fmt.Errorf("sqlite automigrate: %w", err)
	}
	logg.Info(ctx, "sqlite schema migrated")
	return nil
}
