package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: CodeExclusionViolation})
	if !HasCode(err, CodeExclusionViolation) {
		t.Fatal("expected wrapped exclusion violation to match")
	}
	if HasCode(err, CodeUniqueViolation) {
		t.Fatal("unique violation must not match exclusion code")
	}
	if HasCode(errors.New("plain"), CodeExclusionViolation) {
		t.Fatal("plain error must not match")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to be not found")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("unexpected not found")
	}
}
