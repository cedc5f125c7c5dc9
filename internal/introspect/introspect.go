// Package introspect defines the dialect-agnostic Introspector contract;
// internal/introspect/postgres, /sqlite, /turso, and /mysql each ground
// an implementation in their driver's catalog/PRAGMA conventions.
package introspect

import (
	"context"

	"github.com/relq/relq/internal/ir"
)

// Step names the ordered introspection phases spec.md §4.2 lists.
type Step string

const (
	StepTables         Step = "tables"
	StepColumns        Step = "columns"
	StepConstraints    Step = "constraints"
	StepIndexes        Step = "indexes"
	StepChecks         Step = "checks"
	StepEnums          Step = "enums"
	StepPartitions     Step = "partitions"
	StepExtensions     Step = "extensions"
	StepFunctions      Step = "functions"
	StepTriggers       Step = "triggers"
	StepCollations     Step = "collations"
	StepForeignServers Step = "foreign_servers"
	StepForeignTables  Step = "foreign_tables"
	StepTypes          Step = "types"
)

// Steps is the full fixed ordering introspect() walks.
var Steps = []Step{
	StepTables, StepColumns, StepConstraints, StepIndexes, StepChecks,
	StepEnums, StepPartitions, StepExtensions, StepFunctions, StepTriggers,
	StepCollations, StepForeignServers, StepForeignTables, StepTypes,
}

// Progress reports one step's outcome: either a terminal Count of
// objects introspected, or Skipped when the dialect has no concept of
// that step at all (not an error).
type Progress struct {
	Step    Step
	Count   int
	Skipped bool
}

// ProgressFunc receives one Progress event per completed step, in
// Steps order.
type ProgressFunc func(Progress)

// Introspector reads a live database's schema into the IR. Connection
// failures from any method are fatal; per-object failures during
// Introspect are attached to the returned diagnostics instead of
// aborting the whole pass (spec.md §4.2).
type Introspector interface {
	TestConnection(ctx context.Context) error
	GetDatabaseVersion(ctx context.Context) (string, error)
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, schema string) ([]string, error)
	IntrospectTable(ctx context.Context, schema, table string) (*ir.Table, error)
	Introspect(ctx context.Context, schema string, progress ProgressFunc) (*ir.Schema, []ir.Diagnostic, error)
	Close() error
}

// reportOrSkip is a small helper every dialect adapter's Introspect
// uses: emit a terminal count, or mark the step skipped when the
// dialect has nothing to report for it.
func reportOrSkip(progress ProgressFunc, step Step, supported bool, count int) {
	if progress == nil {
		return
	}
	if !supported {
		progress(Progress{Step: step, Skipped: true})
		return
	}
	progress(Progress{Step: step, Count: count})
}

// ReportOrSkip is the exported form reused by dialect-specific
// introspect packages.
func ReportOrSkip(progress ProgressFunc, step Step, supported bool, count int) {
	reportOrSkip(progress, step, supported, count)
}
