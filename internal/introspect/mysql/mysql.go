// Package mysql grounds internal/introspect.Introspector in MySQL's
// information_schema, via go-sql-driver/mysql. The same queries serve
// MariaDB and PlanetScale, which speak the same wire protocol and
// catalog shape; dialect-specific limits (PlanetScale disabling
// foreign-key enforcement, for instance) live in internal/dialect, not
// here.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
)

// Introspector reads a MySQL-family database.
type Introspector struct {
	db      *sql.DB
	dialect string
}

// New opens db for introspection under the given dialect name ("mysql",
// "mariadb", or "planetscale").
func New(db *sql.DB, dialectName string) *Introspector {
	return &Introspector{db: db, dialect: dialectName}
}

func (m *Introspector) Close() error { return m.db.Close() }

func (m *Introspector) TestConnection(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return &relqerr.ConnectivityError{Dialect: m.dialect, Err: err}
	}
	return nil
}

func (m *Introspector) GetDatabaseVersion(ctx context.Context) (string, error) {
	var version string
	if err := m.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", &relqerr.ConnectivityError{Dialect: m.dialect, Err: err}
	}
	return version, nil
}

func (m *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT SCHEMA_NAME FROM information_schema.SCHEMATA
		WHERE SCHEMA_NAME NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')
		ORDER BY SCHEMA_NAME
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

func (m *Introspector) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
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

func (m *Introspector) IntrospectTable(ctx context.Context, schema, table string) (*ir.Table, error) {
	t := &ir.Table{Name: table, Schema: schema}

	columns, err := m.getColumns(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s columns", schema, table), Err: err}
	}
	t.Columns = columns

	indexes, err := m.getIndexes(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s indexes", schema, table), Err: err}
	}
	t.Indexes = indexes

	foreignKeys, err := m.getForeignKeys(ctx, schema, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: fmt.Sprintf("%s.%s foreign keys", schema, table), Err: err}
	}
	t.Constraints = append(t.Constraints, foreignKeys...)

	return t, nil
}

func (m *Introspector) Introspect(ctx context.Context, schema string, progress introspect.ProgressFunc) (*ir.Schema, []ir.Diagnostic, error) {
	tableNames, err := m.ListTables(ctx, schema)
	if err != nil {
		return nil, nil, err
	}
	introspect.ReportOrSkip(progress, introspect.StepTables, true, len(tableNames))

	result := &ir.Schema{SearchPath: []string{schema}}
	var diags []ir.Diagnostic
	columnCount, indexCount, constraintCount := 0, 0, 0

	for _, name := range tableNames {
		table, err := m.IntrospectTable(ctx, schema, name)
		if err != nil {
			diags = append(diags, ir.NewDiagnostic(ir.Range{}, ir.SeverityError, "INTROSPECT_TABLE_FAILED", err.Error()))
			continue
		}
		result.Tables = append(result.Tables, *table)
		columnCount += len(table.Columns)
		indexCount += len(table.Indexes)
		constraintCount += len(table.Constraints)
	}

	introspect.ReportOrSkip(progress, introspect.StepColumns, true, columnCount)
	introspect.ReportOrSkip(progress, introspect.StepConstraints, true, constraintCount)
	introspect.ReportOrSkip(progress, introspect.StepIndexes, true, indexCount)
	introspect.ReportOrSkip(progress, introspect.StepChecks, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepEnums, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepPartitions, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepExtensions, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepFunctions, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepTriggers, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepCollations, true, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignServers, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignTables, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepTypes, false, 0)

	return result, diags, nil
}

func (m *Introspector) getColumns(ctx context.Context, schema, table string) ([]ir.Column, error) {
	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, EXTRA
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ir.Column
	for rows.Next() {
		var col ir.Column
		var nullable, columnKey, extra string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal, &columnKey, &extra); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		col.IsPrimaryKey = columnKey == "PRI"
		col.Unique = columnKey == "UNI"
		col.TypeMetadata = &ir.TypeMetadata{
			Logical: ir.NormalizeTypeName(col.Type),
			Raw:     col.Type,
			Dialect: m.dialect,
		}
		// AUTO_INCREMENT is MySQL's SERIAL-equivalent: its "default"
		// isn't a real expression, so it's dropped like Postgres's
		// nextval()-backed SERIAL default is.
		if extra != "auto_increment" && defaultVal.Valid {
			col.Default = &defaultVal.String
			col.DefaultMeta = &ir.DefaultMetadata{Raw: defaultVal.String, Dialect: m.dialect}
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (m *Introspector) getIndexes(ctx context.Context, schema, table string) ([]ir.Index, error) {
	query := `
		SELECT INDEX_NAME, NON_UNIQUE, COLUMN_NAME, INDEX_TYPE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME != 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := m.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*ir.Index)
	var order []string
	for rows.Next() {
		var name, column, indexType string
		var nonUnique int
		if err := rows.Scan(&name, &nonUnique, &column, &indexType); err != nil {
			return nil, err
		}
		idx, exists := byName[name]
		if !exists {
			idx = &ir.Index{Name: name, Unique: nonUnique == 0, Method: indexMethodFromMySQL(indexType)}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}

	indexes := make([]ir.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *byName[name])
	}
	return indexes, rows.Err()
}

func (m *Introspector) getForeignKeys(ctx context.Context, schema, table string) ([]ir.Constraint, error) {
	query := `
		SELECT kcu.CONSTRAINT_NAME, kcu.COLUMN_NAME, kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME,
			rc.UPDATE_RULE, rc.DELETE_RULE
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME AND rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ? AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`
	rows, err := m.db.QueryContext(ctx, query, schema, table)
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

func indexMethodFromMySQL(indexType string) ir.IndexMethod {
	switch indexType {
	case "HASH":
		return ir.IndexHash
	case "FULLTEXT", "SPATIAL":
		return ir.IndexBTree // no IR-level equivalent yet; tracked as default
	default:
		return ir.IndexBTree
	}
}
