package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/invoicetrack-backend/internal/cron"
	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db"
	"github.com/angelmondragon/invoicetrack-backend/pkg/instance"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
	"github.com/angelmondragon/invoicetrack-backend/pkg/migrate"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox"
	"github.com/angelmondragon/invoicetrack-backend/pkg/redis"
)

const serviceKind = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

// run wires the outbox housekeeping jobs behind a Redis lease and cycles
// them until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()
	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, cfg.Store.KeyNamespace, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Maintenance.Interval)
	if err != nil {
		return fmt.Errorf("maintenance lock: %w", err)
	}

	jobMetrics := metrics.NewMaintenanceMetrics(prometheus.DefaultRegisterer)
	jobs, err := maintenanceJobs(cfg, logg, dbClient, jobMetrics)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    jobMetrics,
		Interval:   cfg.Maintenance.Interval,
		JobTimeout: cfg.Maintenance.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("create maintenance service: %w", err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.WorkerAddr, prometheus.DefaultGatherer, logg); err != nil {
				logg.Error(ctx, "metrics listener stopped", err)
			}
		}()
	}
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func maintenanceJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, jobMetrics *metrics.MaintenanceMetrics) (*cron.Registry, error) {
	events := outbox.NewRepository(dbClient.DB())
	deadLetters := outbox.NewDLQRepository(dbClient.DB())

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		DB:           dbClient,
		Repository:   events,
		DeadLetters:  deadLetters,
		Metrics:      jobMetrics,
		Retention:    cfg.Maintenance.OutboxRetention,
		DLQRetention: cfg.Maintenance.DLQRetention,
		MinAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	backlog, err := cron.NewOutboxBacklogJob(logg, events, deadLetters, cfg.Maintenance.BacklogThreshold)
	if err != nil {
		return nil, fmt.Errorf("outbox backlog job: %w", err)
	}
	return cron.NewRegistry(retention, backlog), nil
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("maintenance:%s", env)
}
