// Package turso dials a Turso/libSQL database through
// tursodatabase/libsql-client-go and introspects it with the same
// PRAGMA-based logic SQLite uses, since libSQL is wire-compatible with
// SQLite's catalog.
package turso

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/introspect/sqlite"
	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/relqerr"
)

// Introspector wraps a sqlite.Introspector opened against a libsql://
// URL; Turso's catalog semantics are SQLite's.
type Introspector struct {
	inner *sqlite.Introspector
}

// Open dials url (a "libsql://...-org.turso.io?authToken=..." DSN)
// through the libsql driver and returns an Introspector over it.
func Open(ctx context.Context, url string) (*Introspector, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, &relqerr.ConnectivityError{Dialect: "turso", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &relqerr.ConnectivityError{Dialect: "turso", Err: err}
	}
	return &Introspector{inner: sqlite.New(db, "turso")}, nil
}

func (t *Introspector) Close() error { return t.inner.Close() }

func (t *Introspector) TestConnection(ctx context.Context) error {
	return t.inner.TestConnection(ctx)
}

func (t *Introspector) GetDatabaseVersion(ctx context.Context) (string, error) {
	version, err := t.inner.GetDatabaseVersion(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("libsql (sqlite %s)", version), nil
}

func (t *Introspector) ListSchemas(ctx context.Context) ([]string, error) {
	return t.inner.ListSchemas(ctx)
}

func (t *Introspector) ListTables(ctx context.Context, schema string) ([]string, error) {
	return t.inner.ListTables(ctx, schema)
}

func (t *Introspector) IntrospectTable(ctx context.Context, schema, table string) (*ir.Table, error) {
	return t.inner.IntrospectTable(ctx, schema, table)
}

func (t *Introspector) Introspect(ctx context.Context, schema string, progress introspect.ProgressFunc) (*ir.Schema, []ir.Diagnostic, error) {
	return t.inner.Introspect(ctx, schema, progress)
}
