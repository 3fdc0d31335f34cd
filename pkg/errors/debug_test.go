package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpReadsPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idempotency_records_pkey", TableName: "idempotency_records", Message: "duplicate key"}
	err := Wrap(CodeConflict, fmt.Errorf("insert claim: %w", pgErr), "idempotency claim")

	d := Dump(err)
	if d.Code != CodeConflict || d.PGCode != "23505" || d.PGConstraint != "idempotency_records_pkey" {
		t.Fatalf("unexpected dump %+v", d)
	}
	if d.Retryable {
		t.Fatal("unique violation must not be retryable")
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
}

func TestDumpMarksDeadlockRetryable(t *testing.T) {
	err := Wrap(CodeInternal, &pq.Error{Code: "40P01", Table: "reservations"}, "confirm hold")

	d := Dump(err)
	if !d.Retryable || d.PGCode != "40P01" || d.PGTable != "reservations" {
		t.Fatalf("unexpected dump %+v", d)
	}
}

func TestDumpUsesCodeRetryability(t *testing.T) {
	if !Dump(Wrap(CodeDependency, stdErrors.New("redis down"), "rate limit")).Retryable {
		t.Fatal("dependency errors are retryable")
	}
	if Dump(New(CodeValidation, "bad")).Retryable {
		t.Fatal("validation errors are not retryable")
	}
	if d := Dump(nil); d.TopMessage != "" || d.Retryable {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
