package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg code", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "invoices_pkey"}), want: true},
		{name: "pg code constraint match", err: &pgconn.PgError{Code: "23505", ConstraintName: "invoices_pkey"}, constraint: "invoices_pkey", want: true},
		{name: "pg code constraint mismatch", err: &pgconn.PgError{Code: "23505", ConstraintName: "other"}, constraint: "invoices_pkey", want: false},
		{name: "pg other code", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "pg message", err: errors.New(`ERROR: duplicate key value violates unique constraint "invoices_pkey"`), constraint: "invoices_pkey", want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: invoices.record_id"), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}
	for _, tt := range tests {
		if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
