package relqerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsAsUnwraps(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("connect: %w", &ConnectivityError{Dialect: "postgres", Err: base})

	var connErr *ConnectivityError
	if !errors.As(wrapped, &connErr) {
		t.Fatal("expected errors.As to find ConnectivityError")
	}
	if connErr.Dialect != "postgres" {
		t.Errorf("Dialect = %q, want postgres", connErr.Dialect)
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected errors.Is to find the wrapped base error")
	}
}

func TestFatalSyncErrorCarriesPhase(t *testing.T) {
	err := &FatalSyncError{Phase: "push", Err: errors.New("constraint violation")}
	if err.Phase != "push" {
		t.Errorf("Phase = %q, want push", err.Phase)
	}
	if errors.Unwrap(err) == nil {
		t.Error("expected Unwrap to return the inner error")
	}
}

func TestCompatibilityErrorMessage(t *testing.T) {
	err := &CompatibilityError{Dialect: "cockroachdb", Feature: "exclusion constraints", Object: "reservations"}
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty message")
	}
}
