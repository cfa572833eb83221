package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/invoicetrack-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestInvoicesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_invoices.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS invoices",
		"record_id text PRIMARY KEY",
		"financing_references jsonb NOT NULL",
		"revision integer NOT NULL CHECK (revision >= 1)",
		"CHECK (NOT (paid AND rejected))",
		"CREATE INDEX IF NOT EXISTS idx_invoices_last_txn_hash",
		"CREATE INDEX IF NOT EXISTS idx_invoices_vendor_email_hash",
		"CREATE INDEX IF NOT EXISTS idx_invoices_vendor_mobile_hash",
		"DROP TABLE IF EXISTS invoices",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInvoiceHistoryMigrationIsAppendOnlyPerRecord(t *testing.T) {
	content := readMigration(t, "*_create_invoice_history.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS invoice_history",
		"FOREIGN KEY (record_id) REFERENCES invoices(record_id) ON DELETE CASCADE",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_invoice_history_record_sequence ON invoice_history (record_id, sequence)",
		"DROP TABLE IF EXISTS invoice_history",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationMatchesModels(t *testing.T) {
	content := readMigration(t, "*_create_outbox.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"aggregate_id text NOT NULL",
		"WHERE published_at IS NULL",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"payload_json jsonb NOT NULL",
		"DROP TABLE IF EXISTS outbox_events",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir returned error: %v", err)
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "Add Invoice Notes!", now)
	if err != nil {
		t.Fatalf("CreateSQLMigration returned error: %v", err)
	}
	if filepath.Base(path) != "20240320080000_add_invoice_notes.sql" {
		t.Fatalf("unexpected migration path %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration failed validation: %v", err)
	}

	if _, err := migrate.CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected unusable name to fail")
	}

	bad := filepath.Join(dir, "bad-name.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write bad migration: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}
