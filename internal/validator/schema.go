package validator

import (
	"fmt"

	"github.com/relq/relq/internal/ir"
)

// ValidateSchema checks referential integrity and internal consistency
// across an assembled schema: duplicate names, missing types, dangling
// foreign keys, and index/constraint columns that don't exist.
func ValidateSchema(schema *ir.Schema) []ir.Diagnostic {
	var diags []ir.Diagnostic
	if schema == nil {
		return diags
	}

	tableNames := make(map[string]bool, len(schema.Tables))
	for _, table := range schema.Tables {
		tableNames[table.Name] = true
	}

	for _, table := range schema.Tables {
		diags = append(diags, validateTable(table, tableNames)...)
	}
	return diags
}

func validateTable(table ir.Table, tableNames map[string]bool) []ir.Diagnostic {
	var diags []ir.Diagnostic

	if len(table.Columns) == 0 {
		diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "empty_table",
			fmt.Sprintf("table %q has no columns", table.Name)))
	}

	columnNames := make(map[string]bool, len(table.Columns))
	hasPrimaryKey := false
	for _, col := range table.Columns {
		if columnNames[col.Name] {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "duplicate_column",
				fmt.Sprintf("duplicate column %q in table %q", col.Name, table.Name)))
		}
		columnNames[col.Name] = true

		if col.IsPrimaryKey {
			hasPrimaryKey = true
		}
		if col.Type == "" {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "missing_type",
				fmt.Sprintf("column %q.%q has no data type", table.Name, col.Name)))
		}
	}

	for _, c := range table.Constraints {
		if c.Kind == ir.ConstraintPrimaryKey {
			hasPrimaryKey = true
		}
	}
	if !hasPrimaryKey {
		diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "no_primary_key",
			fmt.Sprintf("table %q has no primary key", table.Name)))
	}

	indexNames := make(map[string]bool, len(table.Indexes))
	for _, idx := range table.Indexes {
		if indexNames[idx.Name] {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "duplicate_index",
				fmt.Sprintf("duplicate index name %q in table %q", idx.Name, table.Name)))
		}
		indexNames[idx.Name] = true

		for _, colName := range idx.Columns {
			if !columnNames[colName] {
				diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "invalid_index_column",
					fmt.Sprintf("index %q in table %q references unknown column %q", idx.Name, table.Name, colName)))
			}
		}
	}

	constraintNames := make(map[string]bool, len(table.Constraints))
	for _, c := range table.Constraints {
		if c.Name != "" {
			if constraintNames[c.Name] {
				diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "duplicate_constraint",
					fmt.Sprintf("duplicate constraint name %q in table %q", c.Name, table.Name)))
			}
			constraintNames[c.Name] = true
		}

		for _, colName := range c.Columns {
			if !columnNames[colName] {
				diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "invalid_constraint_column",
					fmt.Sprintf("constraint %q in table %q references unknown column %q", c.Name, table.Name, colName)))
			}
		}

		if c.Kind != ir.ConstraintForeignKey {
			continue
		}
		if !tableNames[c.ReferencedTable] {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "invalid_fk_table",
				fmt.Sprintf("foreign key %q in table %q references unknown table %q", c.Name, table.Name, c.ReferencedTable)))
			continue
		}
		if len(c.Columns) != len(c.ReferencedColumns) {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "invalid_fk_column_count",
				fmt.Sprintf("foreign key %q in table %q has %d local column(s) but %d referenced column(s)",
					c.Name, table.Name, len(c.Columns), len(c.ReferencedColumns))))
		}
	}

	if table.Partition != nil {
		for _, key := range table.Partition.Key {
			if !columnNames[key] {
				diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "invalid_partition_key",
					fmt.Sprintf("partition key %q in table %q references unknown column", key, table.Name)))
			}
		}
	}

	return diags
}
