// Package relqerr defines the typed error kinds the rest of the module
// returns instead of ad hoc fmt.Errorf strings, so callers can
// errors.As into the kind that matters to them (spec.md §7/§9's
// explicit-typed-errors redesign away from exception-style control
// flow).
package relqerr

import "fmt"

// ConfigurationError reports a problem with relq.toml or an environment
// definition: missing fields, an unresolvable environment name.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectivityError reports a failure to reach the target database:
// dial failure, auth failure, TLS failure. Always fatal to the
// operation in progress (spec.md §4.2's "connection failures are fatal").
type ConnectivityError struct {
	Dialect string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error (%s): %v", e.Dialect, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IntrospectionError reports a failure to introspect a specific
// database object; per-object, so an introspector's Introspect can
// attach it as a diagnostic and go on with the next table instead of
// aborting the whole introspect.
type IntrospectionError struct {
	Object string
	Err    error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("failed to introspect %s: %v", e.Object, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ValidationError reports how many diagnostics at SeverityError block a
// sync operation from proceeding. It carries only the count; the
// diagnostics themselves are returned alongside it.
type ValidationError struct {
	Source string
	Count  int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation with %d error(s)", e.Source, e.Count)
}

// CompatibilityError reports that a schema object uses a feature the
// target dialect does not support (internal/dialect's blocked-features
// set).
type CompatibilityError struct {
	Dialect string
	Feature string
	Object  string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("%s does not support %s (used by %s)", e.Dialect, e.Feature, e.Object)
}

// QueryError reports a failure executing a generated statement against
// the live database.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v\n  %s", e.Err, e.Statement)
}

func (e *QueryError) Unwrap() error { return e.Err }

// FatalSyncError wraps any error that aborts a pull/push/sync operation
// midway, carrying the phase it failed in so the controller can report
// a precise suspension point (spec.md §4.8's ordered suspension points).
type FatalSyncError struct {
	Phase string
	Err   error
}

func (e *FatalSyncError) Error() string {
	return fmt.Sprintf("sync aborted during %s: %v", e.Phase, e.Err)
}

func (e *FatalSyncError) Unwrap() error { return e.Err }
