package sync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/introspect/mysql"
	"github.com/relq/relq/internal/introspect/postgres"
	"github.com/relq/relq/internal/introspect/sqlite"
	"github.com/relq/relq/internal/introspect/turso"
)

// DetectDialect infers a dialect name from a connection string's
// scheme, mirroring the teacher's executor.DetectDriver, extended to
// the full dialect family spec.md's glossary lists (Postgres-wire
// dialects all share the "postgres"/"postgresql" scheme; MySQL-family
// dialects share "mysql").
func DetectDialect(connStr string) string {
	lower := strings.ToLower(strings.TrimSpace(connStr))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql"
	case strings.HasPrefix(lower, "libsql://"):
		return "turso"
	case strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"),
		lower == ":memory:":
		return "sqlite"
	default:
		return "postgres"
	}
}

// sqlDriverName returns the database/sql driver name registered for a
// dialect family.
func sqlDriverName(dialect string) (string, error) {
	switch dialect {
	case "postgres", "postgresql", "cockroachdb", "dsql", "nile", "xata":
		return "postgres", nil
	case "sqlite":
		return "sqlite", nil
	case "mysql", "mariadb", "planetscale":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// OpenDB opens a plain *sql.DB against connStr for dialect, for
// callers that need to run generated SQL rather than introspect (push/
// apply). Turso connections route through the same "libsql" driver
// name sql.Open uses for introspection.
func OpenDB(ctx context.Context, dialect, connStr string) (*sql.DB, error) {
	driverName := "libsql"
	if dialect != "turso" {
		var err error
		driverName, err = sqlDriverName(dialect)
		if err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", dialect, err)
	}
	return db, nil
}

// OpenIntrospector resolves the right Introspector implementation for
// a connection string, opening (and owning) the underlying connection.
// Callers must Close() the result. Turso is handled separately:
// turso.Open dials the "libsql" sql.DB driver that libsql-client-go
// registers and wraps the SQLite introspector around it.
func OpenIntrospector(ctx context.Context, dialect, connStr string) (introspect.Introspector, error) {
	if dialect == "turso" {
		return turso.Open(ctx, connStr)
	}

	driverName, err := sqlDriverName(dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", dialect, err)
	}

	switch driverName {
	case "postgres":
		return postgres.New(db, dialect), nil
	case "sqlite":
		return sqlite.New(db, dialect), nil
	case "mysql":
		return mysql.New(db, dialect), nil
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
