package validator

import (
	"fmt"

	"github.com/relq/relq/internal/dialect"
	"github.com/relq/relq/internal/ir"
)

// ValidateDialectCompatibility checks a schema against a single
// dialect's feature matrix, type map, and blocked-feature sets,
// producing one diagnostic per incompatibility found. Dialect-specific
// error codes come from the adapter's own catalog when it has an
// entry for the situation; otherwise a generic code is used.
func ValidateDialectCompatibility(schema *ir.Schema, adapter *dialect.Adapter) []ir.Diagnostic {
	var diags []ir.Diagnostic
	if schema == nil || adapter == nil {
		return diags
	}

	if len(schema.Enums) > 0 && !adapter.Features.SupportsEnums {
		diags = append(diags, dialectDiagnostic(adapter, "ENUM_UNSUPPORTED",
			fmt.Sprintf("%s does not support native enum types", adapter.Name)))
	}
	if len(schema.Triggers) > 0 && !adapter.Features.SupportsTriggers {
		diags = append(diags, dialectDiagnostic(adapter, "TRIGGER_UNSUPPORTED",
			fmt.Sprintf("%s does not support triggers", adapter.Name)))
	}
	if len(schema.CompositeTypes) > 0 && !adapter.Features.SupportsCompositeTypes {
		diags = append(diags, dialectDiagnostic(adapter, "COMPOSITE_TYPE_UNSUPPORTED",
			fmt.Sprintf("%s does not support composite types", adapter.Name)))
	}
	if len(schema.Functions) > 0 && !adapter.Features.SupportsStoredProcedures {
		diags = append(diags, dialectDiagnostic(adapter, "FUNCTION_UNSUPPORTED",
			fmt.Sprintf("%s does not support stored functions/procedures", adapter.Name)))
	}

	for _, table := range schema.Tables {
		diags = append(diags, validateTableDialect(table, adapter)...)
	}
	return diags
}

func validateTableDialect(table ir.Table, adapter *dialect.Adapter) []ir.Diagnostic {
	var diags []ir.Diagnostic

	if table.Partition != nil && !adapter.Features.SupportsTablePartitioning {
		diags = append(diags, dialectDiagnostic(adapter, "PARTITION_UNSUPPORTED",
			fmt.Sprintf("%s does not support declarative table partitioning (table %q)", adapter.Name, table.Name)))
	}
	if table.RLSEnabled && !adapter.Features.SupportsRowLevelSecurity {
		diags = append(diags, dialectDiagnostic(adapter, "RLS_UNSUPPORTED",
			fmt.Sprintf("%s does not support row-level security (table %q)", adapter.Name, table.Name)))
	}
	if adapter.Features.MaxColumnsPerTable != nil && len(table.Columns) > *adapter.Features.MaxColumnsPerTable {
		diags = append(diags, dialectDiagnostic(adapter, "TOO_MANY_COLUMNS",
			fmt.Sprintf("table %q has %d columns, exceeding %s's limit of %d",
				table.Name, len(table.Columns), adapter.Name, *adapter.Features.MaxColumnsPerTable)))
	}

	for _, col := range table.Columns {
		entry, ok := adapter.TypeMap.Lookup(col.LogicalType())
		if !ok {
			continue
		}
		switch entry.Status {
		case dialect.TypeUnsupported:
			d := dialectDiagnostic(adapter, entry.ErrorCode, unsupportedTypeMessage(adapter, table, col, entry))
			d.Severity = ir.SeverityError
			diags = append(diags, d)
		case dialect.TypeWarning, dialect.TypeBehavioralDifference:
			d := dialectDiagnostic(adapter, entry.ErrorCode, behaviorTypeMessage(adapter, table, col, entry))
			d.Severity = ir.SeverityWarning
			diags = append(diags, d)
		}
	}

	for _, idx := range table.Indexes {
		if !adapter.SupportsIndexMethod(string(idx.Method)) {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "INDEX_METHOD_UNSUPPORTED",
				fmt.Sprintf("%s does not support %s indexes (index %q on table %q)",
					adapter.Name, idx.Method, idx.Name, table.Name)))
		}
	}

	for _, c := range table.Constraints {
		if !adapter.SupportsConstraintKind(string(c.Kind)) {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "CONSTRAINT_KIND_UNSUPPORTED",
				fmt.Sprintf("%s does not support %s constraints (constraint %q on table %q)",
					adapter.Name, c.Kind, c.Name, table.Name)))
		}
	}

	return diags
}

func dialectDiagnostic(adapter *dialect.Adapter, code, fallback string) ir.Diagnostic {
	if code != "" {
		if d, ok := adapter.Diagnostics.Render(code); ok {
			return d
		}
	}
	return ir.NewDiagnostic(ir.Range{}, ir.SeverityError, code, fallback)
}

func unsupportedTypeMessage(adapter *dialect.Adapter, table ir.Table, col ir.Column, entry dialect.TypeEntry) string {
	msg := fmt.Sprintf("%s does not support type %q (column %q.%q)", adapter.Name, col.LogicalType(), table.Name, col.Name)
	if entry.Alternative != "" {
		msg += fmt.Sprintf("; consider %s instead", entry.Alternative)
	}
	return msg
}

func behaviorTypeMessage(adapter *dialect.Adapter, table ir.Table, col ir.Column, entry dialect.TypeEntry) string {
	msg := fmt.Sprintf("type %q behaves differently on %s (column %q.%q)", col.LogicalType(), adapter.Name, table.Name, col.Name)
	if entry.Note != "" {
		msg += ": " + entry.Note
	}
	return msg
}
