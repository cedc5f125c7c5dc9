// Package sqlite grounds internal/introspect.Introspector in SQLite's
// PRAGMA-based catalog, via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
)

// Introspector reads a SQLite (or, via the turso package's thin wrapper,
// libSQL) database through PRAGMA statements rather than
// information_schema — SQLite carries no such catalog.
type Introspector struct {
	db      *sql.DB
	dialect string
}

// New opens db for introspection under the given dialect name ("sqlite"
// or "turso").
func New(db *sql.DB, dialectName string) *Introspector {
	return &Introspector{db: db, dialect: dialectName}
}

func (s *Introspector) Close() error { return s.db.Close() }

func (s *Introspector) TestConnection(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &relqerr.ConnectivityError{Dialect: s.dialect, Err: err}
	}
	return nil
}

func (s *Introspector) GetDatabaseVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return "", &relqerr.ConnectivityError{Dialect: s.dialect, Err: err}
	}
	return version, nil
}

// ListSchemas always returns a single "main" entry: SQLite has no
// multi-schema namespace concept beyond ATTACHed databases, which
// introspection does not traverse.
func (s *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	return []string{"main"}, nil
}

func (s *Introspector) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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

func (s *Introspector) IntrospectTable(ctx context.Context, schema, table string) (*ir.Table, error) {
	t := &ir.Table{Name: table, Schema: "main"}

	columns, err := s.getColumns(ctx, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: table + " columns", Err: err}
	}
	t.Columns = columns

	indexes, err := s.getIndexes(ctx, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: table + " indexes", Err: err}
	}
	t.Indexes = indexes

	foreignKeys, err := s.getForeignKeys(ctx, table)
	if err != nil {
		return nil, &relqerr.IntrospectionError{Object: table + " foreign keys", Err: err}
	}
	t.Constraints = append(t.Constraints, foreignKeys...)

	return t, nil
}

// Introspect walks the subset of introspect.Steps SQLite actually has a
// concept for; enums, partitions, extensions, functions, triggers,
// RLS, and foreign servers are reported Skipped (spec.md §4.2's
// "unsupported steps reported as Skipped, not errors").
func (s *Introspector) Introspect(ctx context.Context, schema string, progress introspect.ProgressFunc) (*ir.Schema, []ir.Diagnostic, error) {
	tableNames, err := s.ListTables(ctx, schema)
	if err != nil {
		return nil, nil, err
	}
	introspect.ReportOrSkip(progress, introspect.StepTables, true, len(tableNames))

	result := &ir.Schema{SearchPath: []string{"main"}}
	var diags []ir.Diagnostic
	columnCount, indexCount, constraintCount := 0, 0, 0

	for _, name := range tableNames {
		table, err := s.IntrospectTable(ctx, schema, name)
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
	introspect.ReportOrSkip(progress, introspect.StepPartitions, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepExtensions, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepFunctions, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepTriggers, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepCollations, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignServers, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepForeignTables, false, 0)
	introspect.ReportOrSkip(progress, introspect.StepTypes, false, 0)

	return result, diags, nil
}

func (s *Introspector) getColumns(ctx context.Context, table string) ([]ir.Column, error) {
	// table_info does not accept bind parameters; the name already came
	// from ListTables, which reads it back from sqlite_master.
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ir.Column
	for rows.Next() {
		var cid, notNull, pk int
		var col ir.Column
		var defaultVal sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		col.TypeMetadata = &ir.TypeMetadata{
			Logical: ir.NormalizeTypeName(col.Type),
			Raw:     col.Type,
			Dialect: s.dialect,
		}
		if defaultVal.Valid {
			col.Default = &defaultVal.String
			col.DefaultMeta = &ir.DefaultMetadata{Raw: defaultVal.String, Dialect: s.dialect}
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (s *Introspector) getIndexes(ctx context.Context, table string) ([]ir.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	type rawIndex struct {
		name     string
		unique   bool
		origin   string
	}
	var raw []rawIndex
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		raw = append(raw, rawIndex{name: name, unique: unique == 1, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []ir.Index
	for _, r := range raw {
		if r.origin != "c" || strings.HasPrefix(r.name, "sqlite_autoindex") {
			continue
		}
		idx := ir.Index{Name: r.name, Unique: r.unique}

		infoRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(r.name)))
		if err != nil {
			return nil, err
		}
		for infoRows.Next() {
			var seqno, cid int
			var name sql.NullString
			if err := infoRows.Scan(&seqno, &cid, &name); err != nil {
				_ = infoRows.Close()
				return nil, err
			}
			if name.Valid {
				idx.Columns = append(idx.Columns, name.String)
			}
		}
		if err := infoRows.Close(); err != nil {
			return nil, err
		}

		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func (s *Introspector) getForeignKeys(ctx context.Context, table string) ([]ir.Constraint, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	fkMap := make(map[int]*ir.Constraint)
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk, exists := fkMap[id]
		if !exists {
			fk = &ir.Constraint{
				Name:            fmt.Sprintf("fk_%s_%d", table, id),
				Kind:            ir.ConstraintForeignKey,
				ReferencedTable: refTable,
				OnUpdate:        ir.ReferentialAction(onUpdate),
				OnDelete:        ir.ReferentialAction(onDelete),
			}
			fkMap[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}

	constraints := make([]ir.Constraint, 0, len(order))
	for _, id := range order {
		constraints = append(constraints, *fkMap[id])
	}
	return constraints, rows.Err()
}

// quoteIdent wraps an identifier in double quotes, doubling any
// embedded quote — PRAGMA statements interpolate their target directly
// since SQLite has no way to bind it as a parameter.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
