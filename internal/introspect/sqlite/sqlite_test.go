package sqlite

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/relq/relq/internal/ir"
)

func TestQuoteIdentDoublesEmbeddedQuotes(t *testing.T) {
	if got := quoteIdent(`weird"table`); got != `"weird""table"` {
		t.Errorf("quoteIdent = %q", got)
	}
}

func TestGetColumnsReadsPragmaTableInfo(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
		AddRow(0, "id", "INTEGER", 1, nil, 1).
		AddRow(1, "email", "TEXT", 1, nil, 0)
	mock.ExpectQuery(`PRAGMA table_info`).WillReturnRows(rows)

	s := New(db, "sqlite")
	columns, err := s.getColumns(context.Background(), "users")
	if err != nil {
		t.Fatalf("getColumns failed: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(columns))
	}
	if !columns[0].IsPrimaryKey {
		t.Error("expected id column to be flagged primary key")
	}
	if columns[0].Nullable {
		t.Error("expected id column to be NOT NULL (notnull=1)")
	}
}

func TestGetIndexesSkipsAutoIndexes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	listRows := sqlmock.NewRows([]string{"seq", "name", "unique", "origin", "partial"}).
		AddRow(0, "sqlite_autoindex_users_1", 1, "pk", 0).
		AddRow(1, "idx_users_email", 1, "c", 0)
	mock.ExpectQuery(`PRAGMA index_list`).WillReturnRows(listRows)

	infoRows := sqlmock.NewRows([]string{"seqno", "cid", "name"}).AddRow(0, 1, "email")
	mock.ExpectQuery(`PRAGMA index_info`).WillReturnRows(infoRows)

	s := New(db, "sqlite")
	indexes, err := s.getIndexes(context.Background(), "users")
	if err != nil {
		t.Fatalf("getIndexes failed: %v", err)
	}
	if len(indexes) != 1 {
		t.Fatalf("expected auto-created index filtered out, got %d indexes", len(indexes))
	}
	if indexes[0].Name != "idx_users_email" {
		t.Errorf("Name = %q", indexes[0].Name)
	}
	if len(indexes[0].Columns) != 1 || indexes[0].Columns[0] != "email" {
		t.Errorf("Columns = %v", indexes[0].Columns)
	}
}

func TestGetForeignKeysGroupsByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
		AddRow(0, 0, "users", "author_id", "id", "NO ACTION", "CASCADE", "NONE")
	mock.ExpectQuery(`PRAGMA foreign_key_list`).WillReturnRows(rows)

	s := New(db, "sqlite")
	constraints, err := s.getForeignKeys(context.Background(), "posts")
	if err != nil {
		t.Fatalf("getForeignKeys failed: %v", err)
	}
	if len(constraints) != 1 {
		t.Fatalf("expected 1 foreign key, got %d", len(constraints))
	}
	if constraints[0].OnDelete != ir.ActionCascade {
		t.Errorf("OnDelete = %q, want CASCADE", constraints[0].OnDelete)
	}
}
