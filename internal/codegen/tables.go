package codegen

import (
	"fmt"
	"strings"

	"github.com/relq/relq/internal/ir"
)

// writeTable renders a CREATE TABLE statement, one column/constraint
// per line, each carrying its own trailing tracking-token comment on
// its own declaration line — mirroring the teacher's own
// one-element-per-line CreateTable formatting, generalized with a
// token comment parser.Parse can recover on a later read.
func writeTable(b *strings.Builder, t ir.Table) {
	fmt.Fprintf(b, "CREATE TABLE %s ( -- relq:token %s\n", qualifiedName(t.Schema, t.Name), t.Token)

	pkColumns := 0
	for _, col := range t.Columns {
		if col.IsPrimaryKey {
			pkColumns++
		}
	}
	// A composite key can only be declared table-level in SQL, so with
	// more than one PRIMARY KEY column the table-level CONSTRAINT below
	// is what actually declares it; an inline marker on every column
	// would render as multiple primary keys, which postgres rejects.
	inlinePK := pkColumns <= 1

	var defs, tokens []string
	for _, col := range t.Columns {
		defs = append(defs, formatColumnDefinition(col, inlinePK))
		tokens = append(tokens, col.Token)
	}
	for _, c := range t.Constraints {
		defs = append(defs, formatTableConstraint(c))
		tokens = append(tokens, c.Token)
	}
	// The separating comma goes before the token comment, never after
	// it, or the rest of the line would swallow it.
	for i := range defs {
		sep := ","
		if i == len(defs)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "    %s%s -- relq:token %s\n", defs[i], sep, tokens[i])
	}
	b.WriteString(");\n")

	if t.Comment != "" {
		fmt.Fprintf(b, "COMMENT ON TABLE %s IS %s;\n", qualifiedName(t.Schema, t.Name), quoteLiteral(t.Comment))
	}
	if t.RLSEnabled {
		fmt.Fprintf(b, "ALTER TABLE %s ENABLE ROW LEVEL SECURITY;\n", qualifiedName(t.Schema, t.Name))
	}
	for _, idx := range t.Indexes {
		writeIndex(b, t.Name, idx)
	}
	for _, p := range t.Policies {
		writePolicy(b, t.Name, p)
	}
	b.WriteString("\n")
}

// formatColumnDefinition mirrors the teacher's FormatColumnDefinition
// (name, type, NOT NULL, DEFAULT, PRIMARY KEY in that order), extended
// with UNIQUE and GENERATED ALWAYS AS, which the teacher's Column has
// no fields for.
func formatColumnDefinition(col ir.Column, inlinePK bool) string {
	var sb strings.Builder
	sb.WriteString(col.Name)
	sb.WriteString(" ")
	sb.WriteString(col.Type)

	if col.Generated != nil {
		fmt.Fprintf(&sb, " GENERATED ALWAYS AS (%s) STORED", *col.Generated)
	}
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		fmt.Fprintf(&sb, " DEFAULT %s", *col.Default)
	}
	if col.IsPrimaryKey && inlinePK {
		sb.WriteString(" PRIMARY KEY")
	}
	if col.Unique {
		sb.WriteString(" UNIQUE")
	}
	return sb.String()
}

func formatTableConstraint(c ir.Constraint) string {
	switch c.Kind {
	case ir.ConstraintPrimaryKey:
		return fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", c.Name, strings.Join(c.Columns, ", "))
	case ir.ConstraintUnique:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", c.Name, strings.Join(c.Columns, ", "))
	case ir.ConstraintCheck:
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", c.Name, c.Expression)
	case ir.ConstraintForeignKey:
		sql := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			c.Name, strings.Join(c.Columns, ", "), c.ReferencedTable, strings.Join(c.ReferencedColumns, ", "))
		if c.OnDelete != "" && c.OnDelete != ir.ActionNoAction {
			sql += fmt.Sprintf(" ON DELETE %s", c.OnDelete)
		}
		if c.OnUpdate != "" && c.OnUpdate != ir.ActionNoAction {
			sql += fmt.Sprintf(" ON UPDATE %s", c.OnUpdate)
		}
		return sql
	}
	return fmt.Sprintf("CONSTRAINT %s", c.Name)
}

// writeIndex mirrors the teacher's AddIndex, extended with access
// method, INCLUDE columns, and a partial-index predicate, none of
// which the teacher's Index type carries.
func writeIndex(b *strings.Builder, tableName string, idx ir.Index) {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	method := ""
	if idx.Method != "" {
		method = fmt.Sprintf(" USING %s", strings.ToLower(string(idx.Method)))
	}
	fmt.Fprintf(b, "CREATE %sINDEX %s ON %s%s (%s)", unique, idx.Name, tableName, method, strings.Join(idx.Columns, ", "))
	if len(idx.Include) > 0 {
		fmt.Fprintf(b, " INCLUDE (%s)", strings.Join(idx.Include, ", "))
	}
	if idx.Predicate != "" {
		fmt.Fprintf(b, " WHERE %s", idx.Predicate)
	}
	fmt.Fprintf(b, "; -- relq:token %s\n", idx.Token)
}

func writePolicy(b *strings.Builder, tableName string, p ir.Policy) {
	fmt.Fprintf(b, "CREATE POLICY %s ON %s FOR %s", p.Name, tableName, p.Command)
	if p.Using != nil {
		fmt.Fprintf(b, " USING (%s)", *p.Using)
	}
	if p.Check != nil {
		fmt.Fprintf(b, " WITH CHECK (%s)", *p.Check)
	}
	fmt.Fprintf(b, "; -- relq:token %s\n", p.Token)
}

func qualifiedName(schema, name string) string {
	if schema == "" || schema == "public" {
		return name
	}
	return schema + "." + name
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
