package differ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relq/relq/internal/differ/astcmp"
	"github.com/relq/relq/internal/ir"
)

func diffTables(before, after []ir.Table) []ir.Change {
	var changes []ir.Change

	beforeTokens := make([]string, len(before))
	beforeNames := make([]string, len(before))
	for i, t := range before {
		beforeTokens[i] = t.Token
		beforeNames[i] = t.Name
	}
	afterTokens := make([]string, len(after))
	afterNames := make([]string, len(after))
	for i, t := range after {
		afterTokens[i] = t.Token
		afterNames[i] = t.Name
	}

	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateTable, Table: after[i].Name, Object: after[i].Name,
			Token: after[i].Token, Description: fmt.Sprintf("create table %s", after[i].Name),
			After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropTable, Table: before[i].Name, Object: before[i].Name,
			Token: before[i].Token, Description: fmt.Sprintf("drop table %s", before[i].Name),
			Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if b.Name != a.Name {
			changes = append(changes, ir.Change{
				Op: ir.OpRenameTable, Table: a.Name, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("rename table %s to %s", b.Name, a.Name),
				Before:      b.Name, After: a.Name,
			})
		}
		changes = append(changes, diffTableBody(b, a)...)
	}
	return changes
}

func diffTableBody(before, after ir.Table) []ir.Change {
	var changes []ir.Change
	tableName := after.Name

	changes = append(changes, diffColumns(tableName, before.Columns, after.Columns)...)
	changes = append(changes, diffIndexes(tableName, before.Indexes, after.Indexes)...)
	changes = append(changes, diffConstraints(tableName, before.Constraints, after.Constraints)...)

	if before.RLSEnabled != after.RLSEnabled {
		op := ir.OpDisableRLS
		desc := fmt.Sprintf("disable row-level security on %s", tableName)
		if after.RLSEnabled {
			op = ir.OpEnableRLS
			desc = fmt.Sprintf("enable row-level security on %s", tableName)
		}
		changes = append(changes, ir.Change{Op: op, Table: tableName, Object: tableName, Description: desc})
	}
	return changes
}

func diffColumns(table string, before, after []ir.Column) []ir.Change {
	var changes []ir.Change

	beforeTokens := make([]string, len(before))
	beforeNames := make([]string, len(before))
	for i, c := range before {
		beforeTokens[i] = c.Token
		beforeNames[i] = c.Name
	}
	afterTokens := make([]string, len(after))
	afterNames := make([]string, len(after))
	for i, c := range after {
		afterTokens[i] = c.Token
		afterNames[i] = c.Name
	}

	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateColumn, Table: table, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("add column %s.%s", table, after[i].Name), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropColumn, Table: table, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop column %s.%s", table, before[i].Name), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if b.Name != a.Name {
			changes = append(changes, ir.Change{
				Op: ir.OpRenameColumn, Table: table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("rename column %s.%s to %s", table, b.Name, a.Name),
				Before:      b.Name, After: a.Name,
			})
		}
		if columnChanged(b, a) {
			changes = append(changes, ir.Change{
				Op: ir.OpAlterColumn, Table: table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("alter column %s.%s", table, a.Name),
				Before:      b, After: a,
			})
		}
	}
	return changes
}

// columnChanged compares everything about a column that survives a
// rename: logical type, nullability, default (AST-equivalent, not
// textual), primary-key/unique flags, and generated expression.
func columnChanged(b, a ir.Column) bool {
	if b.LogicalType() != a.LogicalType() {
		return true
	}
	if b.Nullable != a.Nullable {
		return true
	}
	if b.IsPrimaryKey != a.IsPrimaryKey || b.Unique != a.Unique {
		return true
	}
	if !equalDefaults(b.Default, a.Default) {
		return true
	}
	if !equalOptionalExpr(b.Generated, a.Generated) {
		return true
	}
	return false
}

func equalDefaults(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return astcmp.ExpressionsEquivalent(*a, *b)
}

func equalOptionalExpr(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return astcmp.ExpressionsEquivalent(*a, *b)
}

func diffIndexes(table string, before, after []ir.Index) []ir.Change {
	var changes []ir.Change

	beforeTokens := make([]string, len(before))
	beforeNames := make([]string, len(before))
	for i, idx := range before {
		beforeTokens[i] = idx.Token
		beforeNames[i] = idx.Name
	}
	afterTokens := make([]string, len(after))
	afterNames := make([]string, len(after))
	for i, idx := range after {
		afterTokens[i] = idx.Token
		afterNames[i] = idx.Name
	}

	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateIndex, Table: table, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create index %s on %s", after[i].Name, table), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropIndex, Table: table, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop index %s on %s", before[i].Name, table), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if indexChanged(b, a) {
			// Indexes are recreated rather than altered in place: a
			// changed column list or predicate is a different index.
			changes = append(changes, ir.Change{
				Op: ir.OpDropIndex, Table: table, Object: b.Name, Token: b.Token,
				Description: fmt.Sprintf("drop index %s on %s (definition changed)", b.Name, table), Before: b,
			})
			changes = append(changes, ir.Change{
				Op: ir.OpCreateIndex, Table: table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("recreate index %s on %s", a.Name, table), After: a,
			})
		}
	}
	return changes
}

func indexChanged(b, a ir.Index) bool {
	if b.Unique != a.Unique || b.Method != a.Method || b.OpClass != a.OpClass {
		return true
	}
	if len(b.Columns) != len(a.Columns) {
		return true
	}
	for i := range b.Columns {
		if b.Columns[i] != a.Columns[i] {
			return true
		}
	}
	if len(b.Include) != len(a.Include) {
		return true
	}
	for i := range b.Include {
		if b.Include[i] != a.Include[i] {
			return true
		}
	}
	return !astcmp.ExpressionsEquivalent(orEmpty(b.Predicate), orEmpty(a.Predicate))
}

func orEmpty(s string) string {
	if s == "" {
		return "true"
	}
	return s
}

// diffConstraints splits CHECK constraints out from every other kind
// before diffing, since they need their own matching strategy: a CHECK
// rarely carries a stable token, and postgres auto-names it off the
// column it references, so two schemas can declare "the same" check
// under different names. Single-column UNIQUE constraints are dropped
// entirely here, since parser/introspection both also surface them as
// the column's own Unique flag, which diffColumns already compares.
func diffConstraints(table string, before, after []ir.Constraint) []ir.Change {
	before = dropSingleColumnUnique(before)
	after = dropSingleColumnUnique(after)

	beforeChecks, beforeRest := splitCheckConstraints(before)
	afterChecks, afterRest := splitCheckConstraints(after)

	var changes []ir.Change
	changes = append(changes, diffCheckConstraints(table, beforeChecks, afterChecks)...)
	changes = append(changes, diffOtherConstraints(table, beforeRest, afterRest)...)
	return changes
}

func dropSingleColumnUnique(constraints []ir.Constraint) []ir.Constraint {
	var out []ir.Constraint
	for _, c := range constraints {
		if c.Kind == ir.ConstraintUnique && len(c.Columns) <= 1 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func splitCheckConstraints(constraints []ir.Constraint) (checks, rest []ir.Constraint) {
	for _, c := range constraints {
		if c.Kind == ir.ConstraintCheck {
			checks = append(checks, c)
		} else {
			rest = append(rest, c)
		}
	}
	return checks, rest
}

// diffCheckConstraints matches CHECK constraints by the column(s) their
// expression references rather than by name or token, falling back to
// a name heuristic (stripping the table prefix and "_check"/"_chk"
// suffix postgres' own auto-naming adds) when the expression can't be
// parsed.
func diffCheckConstraints(table string, before, after []ir.Constraint) []ir.Change {
	var changes []ir.Change
	matchedAfter := make([]bool, len(after))

	for _, b := range before {
		key := checkConstraintKey(table, b)
		matched := false
		for ai, a := range after {
			if matchedAfter[ai] || checkConstraintKey(table, a) != key {
				continue
			}
			matchedAfter[ai] = true
			matched = true
			if !astcmp.ExpressionsEquivalent(b.Expression, a.Expression) {
				changes = append(changes, ir.Change{
					Op: ir.OpDropConstraint, Table: table, Object: b.Name, Token: b.Token,
					Description: fmt.Sprintf("drop constraint %s on %s (definition changed)", b.Name, table), Before: b,
				})
				changes = append(changes, ir.Change{
					Op: ir.OpCreateConstraint, Table: table, Object: a.Name, Token: a.Token,
					Description: fmt.Sprintf("recreate constraint %s on %s", a.Name, table), After: a,
				})
			}
			break
		}
		if !matched {
			changes = append(changes, ir.Change{
				Op: ir.OpDropConstraint, Table: table, Object: b.Name, Token: b.Token,
				Description: fmt.Sprintf("drop constraint %s on %s", b.Name, table), Before: b,
			})
		}
	}
	for ai, a := range after {
		if !matchedAfter[ai] {
			changes = append(changes, ir.Change{
				Op: ir.OpCreateConstraint, Table: table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("add constraint %s on %s", a.Name, table), After: a,
			})
		}
	}
	return changes
}

func checkConstraintKey(table string, c ir.Constraint) string {
	if cols, ok := astcmp.ReferencedColumns(c.Expression); ok && len(cols) > 0 {
		sorted := append([]string(nil), cols...)
		sort.Strings(sorted)
		return "cols:" + strings.Join(sorted, ",")
	}
	return "name:" + checkNameHeuristic(table, c.Name)
}

// checkNameHeuristic strips the conventional "<table>_" prefix and
// "_check"/"_chk" suffix postgres and the codegen layer both use when
// auto-naming a CHECK constraint, leaving just the part that tends to
// name the column or condition it enforces.
func checkNameHeuristic(table, name string) string {
	n := strings.TrimSuffix(name, "_check")
	n = strings.TrimSuffix(n, "_chk")
	n = strings.TrimPrefix(n, table+"_")
	return n
}

func diffOtherConstraints(table string, before, after []ir.Constraint) []ir.Change {
	var changes []ir.Change

	beforeTokens := make([]string, len(before))
	beforeNames := make([]string, len(before))
	for i, c := range before {
		beforeTokens[i] = c.Token
		beforeNames[i] = c.Name
	}
	afterTokens := make([]string, len(after))
	afterNames := make([]string, len(after))
	for i, c := range after {
		afterTokens[i] = c.Token
		afterNames[i] = c.Name
	}

	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateConstraint, Table: table, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("add constraint %s on %s", after[i].Name, table), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropConstraint, Table: table, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop constraint %s on %s", before[i].Name, table), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if constraintChanged(b, a) {
			changes = append(changes, ir.Change{
				Op: ir.OpDropConstraint, Table: table, Object: b.Name, Token: b.Token,
				Description: fmt.Sprintf("drop constraint %s on %s (definition changed)", b.Name, table), Before: b,
			})
			changes = append(changes, ir.Change{
				Op: ir.OpCreateConstraint, Table: table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("recreate constraint %s on %s", a.Name, table), After: a,
			})
		}
	}
	return changes
}

func constraintChanged(b, a ir.Constraint) bool {
	if b.Kind != a.Kind {
		return true
	}
	if len(b.Columns) != len(a.Columns) {
		return true
	}
	for i := range b.Columns {
		if b.Columns[i] != a.Columns[i] {
			return true
		}
	}
	switch a.Kind {
	case ir.ConstraintCheck:
		return !astcmp.ExpressionsEquivalent(b.Expression, a.Expression)
	case ir.ConstraintForeignKey:
		if b.ReferencedTable != a.ReferencedTable {
			return true
		}
		if b.OnDelete != a.OnDelete || b.OnUpdate != a.OnUpdate {
			return true
		}
		if len(b.ReferencedColumns) != len(a.ReferencedColumns) {
			return true
		}
		for i := range b.ReferencedColumns {
			if b.ReferencedColumns[i] != a.ReferencedColumns[i] {
				return true
			}
		}
	}
	return false
}
