package migrate

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/db"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvProd},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	if err := MaybeRunDev(context.Background(), cfg, logg, nil); err != nil {
		t.Fatalf("expected no-op outside dev, got %v", err)
	}
}

func TestMaybeRunDevMigratesSQLite(t *testing.T) {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := db.NewSQLite(ctx, filepath.Join(t.TempDir(), "invoices.db"), logg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		App:          config.AppConfig{Env: config.AppEnvDev},
		FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true, UseSQLite: true},
	}
	if err := MaybeRunDev(ctx, cfg, logg, client); err != nil {
		t.Fatalf("MaybeRunDev returned error: %v", err)
	}
	for _, table := range []string{"invoices", "invoice_history", "outbox_events", "outbox_dlq"} {
		if !client.DB().Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}
