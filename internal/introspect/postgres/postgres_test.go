package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/relq/relq/internal/introspect"
	"github.com/relq/relq/internal/ir"
)

func TestIsSerialDefault(t *testing.T) {
	cases := map[string]bool{
		"nextval('users_id_seq'::regclass)": true,
		"nextval('orders_seq'::regclass)":   true,
		"'active'::character varying":       false,
		"":                                  false,
	}
	for input, want := range cases {
		if got := isSerialDefault(input); got != want {
			t.Errorf("isSerialDefault(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNormalizeDefaultStripsBalancedCast(t *testing.T) {
	cases := map[string]string{
		"'active'::character varying": "'active'",
		"'{}'::jsonb":                 "'{}'",
		"now()":                       "now()",
		"'a::b'::text":                "'a::b'",
	}
	for input, want := range cases {
		if got := normalizeDefault(input); got != want {
			t.Errorf("normalizeDefault(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestGetColumnsDetectsSerial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "is_primary_key"}).
		AddRow("id", "integer", "NO", "nextval('widgets_id_seq'::regclass)", true).
		AddRow("name", "character varying", "NO", nil, false)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	p := New(db, "postgres")
	columns, err := p.getColumns(context.Background(), "public", "widgets")
	if err != nil {
		t.Fatalf("getColumns failed: %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(columns))
	}
	if columns[0].Type != "serial" {
		t.Errorf("id column Type = %q, want serial", columns[0].Type)
	}
	if columns[0].Default != nil {
		t.Errorf("expected serial column default to be stripped, got %q", *columns[0].Default)
	}
	if columns[0].TypeMetadata == nil || columns[0].TypeMetadata.Dialect != "postgres" {
		t.Error("expected TypeMetadata.Dialect to be stamped postgres")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetForeignKeysGroupsMultiColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"constraint_name", "column_name", "ref_table", "ref_column", "update_rule", "delete_rule"}).
		AddRow("fk_order_item", "order_id", "orders", "id", "NO ACTION", "CASCADE").
		AddRow("fk_order_item", "tenant_id", "orders", "tenant_id", "NO ACTION", "CASCADE")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	p := New(db, "postgres")
	constraints, err := p.getForeignKeys(context.Background(), "public", "order_items")
	if err != nil {
		t.Fatalf("getForeignKeys failed: %v", err)
	}
	if len(constraints) != 1 {
		t.Fatalf("expected one grouped foreign key, got %d", len(constraints))
	}
	fk := constraints[0]
	if len(fk.Columns) != 2 || len(fk.ReferencedColumns) != 2 {
		t.Errorf("expected two columns on both sides, got %v / %v", fk.Columns, fk.ReferencedColumns)
	}
	if fk.OnDelete != ir.ActionCascade {
		t.Errorf("OnDelete = %q, want CASCADE", fk.OnDelete)
	}
}

func TestGetKeyAndCheckConstraintsParsesEachKind(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"conname", "contype", "definition", "columns"}).
		AddRow("memberships_pkey", "p", "PRIMARY KEY (org_id, user_id)", "{org_id,user_id}").
		AddRow("memberships_org_id_key", "u", "UNIQUE (org_id)", "{org_id}").
		AddRow("memberships_role_check", "c", "CHECK ((role = ANY (ARRAY['admin'::text, 'member'::text])))", "{}")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	p := New(db, "postgres")
	constraints, err := p.getKeyAndCheckConstraints(context.Background(), "public", "memberships")
	if err != nil {
		t.Fatalf("getKeyAndCheckConstraints failed: %v", err)
	}
	if len(constraints) != 3 {
		t.Fatalf("expected 3 constraints, got %d: %+v", len(constraints), constraints)
	}

	pk := constraints[0]
	if pk.Kind != ir.ConstraintPrimaryKey || len(pk.Columns) != 2 {
		t.Errorf("expected a 2-column PRIMARY KEY, got %+v", pk)
	}

	unique := constraints[1]
	if unique.Kind != ir.ConstraintUnique || len(unique.Columns) != 1 {
		t.Errorf("expected a single-column UNIQUE, got %+v", unique)
	}

	check := constraints[2]
	if check.Kind != ir.ConstraintCheck {
		t.Errorf("expected a CHECK constraint, got %+v", check)
	}
	if check.Expression != "(role = ANY (ARRAY['admin'::text, 'member'::text]))" {
		t.Errorf("expected the CHECK wrapper stripped, got %q", check.Expression)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIntrospectReportsSkippedStepsForPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT table_name").WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectQuery("SELECT t.typname").WillReturnRows(sqlmock.NewRows([]string{"typname", "enumlabel"}))
	mock.ExpectQuery("SELECT extname").WillReturnRows(sqlmock.NewRows([]string{"extname", "extversion"}))

	p := New(db, "postgres")
	var seen []introspect.Progress
	_, _, err = p.Introspect(context.Background(), "public", func(pr introspect.Progress) {
		seen = append(seen, pr)
	})
	if err != nil {
		t.Fatalf("Introspect failed: %v", err)
	}

	byStep := make(map[introspect.Step]introspect.Progress)
	for _, pr := range seen {
		byStep[pr.Step] = pr
	}
	if !byStep[introspect.StepCollations].Skipped {
		t.Error("expected collations step to be reported Skipped, not an error")
	}
	if byStep[introspect.StepTables].Skipped {
		t.Error("expected tables step to be reported, not Skipped")
	}
}
