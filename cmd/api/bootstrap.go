package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/invoicetrack-backend/api/controllers"
	"github.com/angelmondragon/invoicetrack-backend/api/routes"
	"github.com/angelmondragon/invoicetrack-backend/internal/clock"
	"github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	"github.com/angelmondragon/invoicetrack-backend/internal/invoices/notify"
	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
	"github.com/angelmondragon/invoicetrack-backend/pkg/metrics"
	"github.com/angelmondragon/invoicetrack-backend/pkg/migrate"
	"github.com/angelmondragon/invoicetrack-backend/pkg/outbox"
	"github.com/angelmondragon/invoicetrack-backend/pkg/redis"
)

// application owns the connections the api opened and the services built on
// top of them.
type application struct {
	db       *db.Client
	redis    *redis.Client
	service  invoices.Service
	queries  invoices.Queries
	metrics  http.Handler
	readyDep map[string]controllers.Pinger
}

func bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger) (app *application, err error) {
	app = &application{readyDep: make(map[string]controllers.Pinger)}
	defer func() {
		if err != nil {
			err = multierr.Append(err, app.Close())
		}
	}()

	if cfg.NeedsDB() {
		if app.db, err = openDB(ctx, cfg, logg); err != nil {
			return app, fmt.Errorf("database: %w", err)
		}
		if err = migrate.MaybeRunDev(ctx, cfg, logg, app.db); err != nil {
			return app, fmt.Errorf("dev migrations: %w", err)
		}
		app.readyDep["database"] = app.db
	}
	if cfg.NeedsRedis() {
		if app.redis, err = redis.New(ctx, cfg.Redis, cfg.Store.KeyNamespace, logg); err != nil {
			return app, fmt.Errorf("redis: %w", err)
		}
		app.readyDep["redis"] = app.redis
	}

	store, err := app.openStore(cfg)
	if err != nil {
		return app, fmt.Errorf("invoice store: %w", err)
	}
	notifier, err := app.buildNotifier(cfg, logg)
	if err != nil {
		return app, fmt.Errorf("invoice notifier: %w", err)
	}

	var lifecycleMetrics *metrics.LifecycleMetrics
	if cfg.Metrics.Enabled {
		lifecycleMetrics = metrics.NewLifecycleMetrics(prometheus.DefaultRegisterer)
		app.metrics = promhttp.Handler()
	}

	if app.service, err = invoices.NewService(invoices.ServiceParams{
		Store:    store,
		Clock:    clock.System{},
		Notifier: notifier,
		Logger:   logg,
		Metrics:  lifecycleMetrics,
	}); err != nil {
		return app, err
	}
	if app.queries, err = invoices.NewQueries(store); err != nil {
		return app, err
	}
	app.readyDep["store"] = app.queries
	return app, nil
}

func (a *application) Dependencies() routes.Dependencies {
	return routes.Dependencies{
		Service: a.service,
		Queries: a.queries,
		Ready:   a.readyDep,
		Metrics: a.metrics,
	}
}

func (a *application) openStore(cfg *config.Config) (invoices.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return invoices.NewMemoryStore(), nil
	case config.StoreDriverRedis:
		return invoices.NewRedisStore(a.redis, cfg.Store.RetentionTTL)
	case config.StoreDriverPostgres:
		return invoices.NewRepository(a.db)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func (a *application) buildNotifier(cfg *config.Config, logg *logger.Logger) (invoices.Notifier, error) {
	logNotifier, err := notify.NewLogNotifier(logg)
	if err != nil {
		return nil, err
	}
	switch cfg.Notify.Driver {
	case config.NotifyDriverLog:
		return logNotifier, nil
	case config.NotifyDriverRedis:
		redisNotifier, err := notify.NewRedisNotifier(a.redis, cfg.Notify.RedisChannel)
		if err != nil {
			return nil, err
		}
		return notify.Multi{logNotifier, redisNotifier}, nil
	case config.NotifyDriverOutbox:
		outboxNotifier, err := notify.NewOutboxNotifier(a.db, outbox.NewService(outbox.NewRepository(a.db.DB()), logg))
		if err != nil {
			return nil, err
		}
		return notify.Multi{logNotifier, outboxNotifier}, nil
	}
	return nil, fmt.Errorf("unsupported notify driver %q", cfg.Notify.Driver)
}

// Close releases every connection bootstrap opened.
func (a *application) Close() error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}

func openDB(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*db.Client, error) {
	if cfg.FeatureFlags.UseSQLite {
		return db.NewSQLite(ctx, cfg.DB.SQLitePath, logg)
	}
	return db.New(ctx, cfg.DB, logg)
}
