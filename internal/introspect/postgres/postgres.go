// Package postgres grounds internal/introspect.Introspector in
// information_schema and pg_catalog queries against a *sql.DB opened
// with lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
)

// Introspector reads a PostgreSQL-family database (also used, as-is,
// for CockroachDB/DSQL/Nile/Xata: all speak the wire protocol and
// information_schema closely enough that the same queries apply, with
// unsupported steps simply reporting zero rows).
type Introspector struct {
	db      *sql.DB
	dialect string
}

// New opens db for introspection under the given dialect name (used to
// stamp Column.TypeMetadata.Dialect).
func New(db *sql.DB, dialectName string) *Introspector {
	return &Introspector{db: db, dialect: dialectName}
}

func (p *Introspector) Close() error { return p.db.Close() }

func (p *Introspector) TestConnection(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return &relqerr.ConnectivityError{Dialect: p.dialect, Err: err}
	}
	return nil
}

func (p *Introspector) GetDatabaseVersion(ctx context.Context) (string, error) {
	var version string
	if err := p.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", &relqerr.ConnectivityError{Dialect: p.dialect, Err: err}
	}
	return version, nil
}

func (p *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		ORDER BY schema_name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		schemas = append(schemas, name)
	}
	return schemas, rows.Err()
}

func (p *Introspector) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schema)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *Introspector) IntrospectTable(ctx context.Context, schema, table string) (*ir.Table, error) {
	if schema == "" {
		schema = "public"
	}
	t := &ir.Table{Name: table, Schema: schema}

	columns, err := p.getColumns(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s columns", schema, table), Err: err}
	}
	t.Columns = columns

	indexes, err := p.getIndexes(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s indexes", schema, table), Err: err}
	}
	t.Indexes = indexes

	constraints, err := p.getForeignKeys(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s foreign keys", schema, table), Err: err}
	}
	t.Constraints = append(t.Constraints, constraints...)

	keyAndCheckConstraints, err := p.getKeyAndCheckConstraints(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s constraints", schema, table), Err: err}
	}
	t.Constraints = append(t.Constraints, keyAndCheckConstraints...)

	rls, err := p.getRLSEnabled(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s RLS status", schema, table), Err: err}
	}
	t.RLSEnabled = rls

	return t, nil
}

// Introspect walks every step in introspect.Steps order, attaching
// per-object failures as diagnostics rather than aborting (spec.md §4.2).
func (p *Introspector) Introspect(ctx context.Context, schema string, progress introspect.ProgressFunc) (*ir.Schema, []ir.Diagnostic, error) {
	if schema == "" {
		schema = "public"
	}
	var diags []ir.Diagnostic

	tableNames, err := p.ListTables(ctx, schema)
	if err != nil {
		return nil, nil, err
	}
	introspect.ReportOrSkip(progress, introspect.StepTables, true, len(tableNames))

	result := &ir.Schema{SearchPath: []string{schema}}
	columnCount, indexCount, constraintCount, checkCount := 0, 0, 0, 0

	for _, name := range tableNames {
		table, err := p.IntrospectTable(ctx, schema, name)
		if err != nil {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "INTROSPECT_TABLE_FAILED", err.Error()))
			continue
		}
		result.Tables = append(result.Tables, *table)
		columnCount += len(table.Columns)
		indexCount += len(table.Indexes)
		constraintCount += len(table.Constraints)
		for _, con := range table.Constraints {
			if con.Kind == ir.ConstraintCheck {
				checkCount++
			}
		}
	}

	introspect.ReportOrSkip(progress, introspect.StepColumns, true, columnCount)
	introspect.ReportOrSkip(progress, introspect.StepConstraints, true, constraintCount)
	introspect.ReportOrSkip(progress, introspect.StepIndexes, true, indexCount)
	introspect.ReportOrSkip(progress, introspect.StepChecks, true, checkCount)

	enums, err := p.getEnums(ctx, schema)
	if err != nil {
		diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "INTROSPECT_ENUMS_FAILED", err.Error()))
	}
	result.Enums = enums
	introspect.ReportOrSkip(progress, introspect.StepEnums, true, len(enums))

	introspect.ReportOrSkip(progress, introspect.StepPartitions, true, 0)

	extensions, err := p.getExtensions(ctx)
	if err != nil {
		diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityWarning, "INTROSPECT_EXTENSIONS_FAILED", err.Error()))
	}
	result.Extensions = extensions
	introspect.ReportOrSkip(progress, introspect.StepExtensions, true, len(extensions))

	introspect.ReportOrSkip(progress, introspect.StepFunctions, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepTriggers, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepCollations, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignServers, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignTables, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepTypes, true, 0)

	return result, diags, nil
}

func (p *Introspector) getColumns(ctx context.Context, schema, table string) ([]ir.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			COALESCE(
				(SELECT true
				 FROM information_schema.table_constraints tc
				 JOIN information_schema.key_column_usage kcu
				   ON tc.constraint_name = kcu.constraint_name
				   AND tc.table_schema = kcu.table_schema
				 WHERE tc.table_name = c.table_name
				   AND tc.table_schema = c.table_schema
				   AND tc.constraint_type = 'PRIMARY KEY'
				   AND kcu.column_name = c.column_name),
				false
			) as is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
	rows, err := p.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ir.Column
	for rows.Next() {
		var col ir.Column
		var nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal, &col.IsPrimaryKey); err != nil {
			return nil, err
		}
		col.Type = strings.TrimSpace(col.Type)

		actualType := col.Type
		isSerial := false
		if defaultVal.Valid && isSerialDefault(defaultVal.String) {
			switch {
			case strings.EqualFold(col.Type, "bigint"):
				actualType, isSerial = "bigserial", true
			case strings.EqualFold(col.Type, "integer"):
				actualType, isSerial = "serial", true
			}
		}
		col.Type = actualType
		col.TypeMetadata = &ir.TypeMetadata{
			Logical: ir.NormalizeTypeName(actualType),
			Raw:     actualType,
			Dialect: p.dialect,
		}
		col.Nullable = nullable == "YES"

		if isSerial {
			col.Default = nil
		} else if defaultVal.Valid {
			normalized := normalizeDefault(defaultVal.String)
			col.Default = &normalized
			col.DefaultMeta = &ir.DefaultMetadata{Raw: normalized, Dialect: p.dialect}
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (p *Introspector) getIndexes(ctx context.Context, schema, table string) ([]ir.Index, error) {
	query := `
		SELECT i.indexname, ix.indisunique
		FROM pg_indexes i
		JOIN pg_namespace n ON n.nspname = i.schemaname
		JOIN pg_class ic ON ic.relname = i.indexname AND ic.relnamespace = n.oid
		JOIN pg_index ix ON ix.indexrelid = ic.oid
		WHERE i.schemaname = $1
		  AND i.tablename = $2
		  AND ix.indisprimary = false
		  AND NOT EXISTS (
			SELECT 1 FROM pg_constraint con
			WHERE con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
		  )
		ORDER BY i.indexname
	`
	rows, err := p.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query failed for table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []ir.Index
	for rows.Next() {
		var idx ir.Index
		if err := rows.Scan(&idx.Name, &idx.Unique); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (p *Introspector) getForeignKeys(ctx context.Context, schema, table string) ([]ir.Constraint, error) {
	query := `
		SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name, rc.update_rule, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`
	rows, err := p.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	fkMap := make(map[string]*ir.Constraint)
	var order []string
	for rows.Next() {
		var name, column, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &updateRule, &deleteRule); err != nil {
			return nil, err
		}
		fk, exists := fkMap[name]
		if !exists {
			fk = &ir.Constraint{
				Name:            name,
				Kind:            ir.ConstraintForeignKey,
				ReferencedTable: refTable,
				OnUpdate:        ir.ReferentialAction(updateRule),
				OnDelete:        ir.ReferentialAction(deleteRule),
			}
			fkMap[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
	}

	constraints := make([]ir.Constraint, 0, len(order))
	for _, name := range order {
		constraints = append(constraints, *fkMap[name])
	}
	return constraints, rows.Err()
}

// getKeyAndCheckConstraints reads PRIMARY KEY, UNIQUE, and CHECK
// constraints straight from pg_constraint, using pg_get_constraintdef
// for the CHECK expression text rather than trying to reconstruct it
// from pg_attribute/pg_type (the same trick psql's own \d uses).
func (p *Introspector) getKeyAndCheckConstraints(ctx context.Context, schema, table string) ([]ir.Constraint, error) {
	query := `
		SELECT
			con.conname,
			con.contype,
			pg_get_constraintdef(con.oid) AS definition,
			COALESCE(
				(SELECT array_agg(a.attname ORDER BY k.ord)
				 FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
				 JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum),
				'{}'
			) AS columns
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND con.contype IN ('p', 'u', 'c')
		ORDER BY con.conname
	`
	rows, err := p.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query failed for table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var constraints []ir.Constraint
	for rows.Next() {
		var name, contype, definition string
		var columns []string
		if err := rows.Scan(&name, &contype, &definition, pq.Array(&columns)); err != nil {
			return nil, err
		}

		con := ir.Constraint{Name: name, Columns: columns}
		switch contype {
		case "p":
			con.Kind = ir.ConstraintPrimaryKey
		case "u":
			con.Kind = ir.ConstraintUnique
		case "c":
			con.Kind = ir.ConstraintCheck
			con.Expression = checkExpressionFromDef(definition)
		default:
			continue
		}
		constraints = append(constraints, con)
	}
	return constraints, rows.Err()
}

// checkExpressionFromDef strips the "CHECK (...)" wrapper
// pg_get_constraintdef returns around a CHECK constraint's expression.
func checkExpressionFromDef(def string) string {
	expr := strings.TrimSpace(def)
	expr = strings.TrimPrefix(expr, "CHECK")
	expr = strings.TrimSpace(expr)
	expr = strings.TrimPrefix(expr, "(")
	expr = strings.TrimSuffix(expr, ")")
	return expr
}

func (p *Introspector) getRLSEnabled(ctx context.Context, schema, table string) (bool, error) {
	var enabled bool
	err := p.db.QueryRowContext(ctx, `
		SELECT relrowsecurity FROM pg_catalog.pg_class c
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relname = $1 AND n.nspname = $2 AND c.relkind = 'r'
	`, table, schema).Scan(&enabled)
	if err != nil {
		return false, err
	}
	return enabled, nil
}

func (p *Introspector) getEnums(ctx context.Context, schema string) ([]ir.Enum, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`, schema)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*ir.Enum)
	var order []string
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		e, exists := byName[name]
		if !exists {
			e = &ir.Enum{Name: name, Schema: schema}
			byName[name] = e
			order = append(order, name)
		}
		e.Values = append(e.Values, value)
	}

	enums := make([]ir.Enum, 0, len(order))
	for _, name := range order {
		enums = append(enums, *byName[name])
	}
	return enums, rows.Err()
}

func (p *Introspector) getExtensions(ctx context.Context) ([]ir.Extension, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT extname, extversion FROM pg_extension ORDER BY extname`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var extensions []ir.Extension
	for rows.Next() {
		var ext ir.Extension
		if err := rows.Scan(&ext.Name, &ext.Version); err != nil {
			return nil, err
		}
		extensions = append(extensions, ext)
	}
	return extensions, rows.Err()
}

// isSerialDefault reports whether defaultVal looks like a sequence-backed
// default ("nextval('..._seq'::regclass)"), indicating a SERIAL column.
func isSerialDefault(defaultVal string) bool {
	return strings.HasPrefix(defaultVal, "nextval(") && strings.Contains(defaultVal, "_seq")
}

// normalizeDefault strips a trailing type cast ("'{}'::jsonb" -> "'{}'")
// when the text before it has balanced quotes.
func normalizeDefault(defaultVal string) string {
	if idx := strings.LastIndex(defaultVal, "::"); idx > 0 {
		beforeCast := defaultVal[:idx]
		if strings.Count(beforeCast, "'")%2 == 0 {
			return beforeCast
		}
	}
	return defaultVal
}
