package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDumpCapturesChainAndCode(t *testing.T) {
	err := fmt.Errorf("save invoice: %w", Wrap(CodeDependency, fmt.Errorf("dial tcp: refused"), "store unavailable"))

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected chain of 3, got %d: %v", len(d.Chain), d.Chain)
	}
	if d.PGCode != "" {
		t.Fatalf("expected no pg code, got %q", d.PGCode)
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "invoices_pkey",
		TableName:      "invoices",
		Message:        "duplicate key value violates unique constraint",
	}
	d := Dump(Wrap(CodeConflict, pgErr, "insert invoice"))
	if d.PGCode != "23505" || d.PGConstraint != "invoices_pkey" || d.PGTable != "invoices" {
		t.Fatalf("unexpected dump %+v", d)
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}

func TestDumpCarriesViolationDetails(t *testing.T) {
	err := New(CodeStateConflict, "invoice acknowledged is false, operation requires true").
		WithDetails(map[string]any{"violation": "AcknowledgementMismatch", "legacy_code": 2001})

	d := Dump(fmt.Errorf("mark paid: %w", err))
	if d.Violation != "AcknowledgementMismatch" || d.LegacyCode != 2001 {
		t.Fatalf("unexpected violation fields %+v", d)
	}
	fields := d.Fields()
	if fields["legacy_code"] != 2001 || fields["violation"] != "AcknowledgementMismatch" {
		t.Fatalf("unexpected log fields %v", fields)
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("expected empty pg fields omitted, got %v", fields)
	}
}
