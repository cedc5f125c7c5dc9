package parser

import (
	"strings"
	"testing"

	"github.com/relq/relq/internal/ir"
)

func TestParseCreateTableBasic(t *testing.T) {
	sql := `
CREATE TABLE users ( -- relq:token t00001
    id bigint PRIMARY KEY, -- relq:token c00001
    email text NOT NULL, -- relq:token c00002
    created_at timestamptz DEFAULT now() -- relq:token c00003
);
`
	schema, diags, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(schema.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(schema.Tables))
	}

	table := schema.Tables[0]
	if table.Name != "users" {
		t.Errorf("table name = %q", table.Name)
	}
	if table.Token != "t00001" {
		t.Errorf("table token = %q, want t00001", table.Token)
	}
	if len(table.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(table.Columns))
	}
	if !table.Columns[0].IsPrimaryKey {
		t.Error("expected id to be primary key")
	}
	if table.Columns[0].Token != "c00001" {
		t.Errorf("id token = %q, want c00001", table.Columns[0].Token)
	}
	if table.Columns[1].Nullable {
		t.Error("expected email to be NOT NULL")
	}
	if table.Columns[2].Default == nil || *table.Columns[2].Default != "now()" {
		t.Errorf("created_at default = %v, want now()", table.Columns[2].Default)
	}
}

func TestParseCheckConstraint(t *testing.T) {
	sql := `
CREATE TABLE products (
    id bigint PRIMARY KEY,
    price numeric CHECK (price > 0)
);
`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table := schema.Tables[0]
	var found bool
	for _, c := range table.Constraints {
		if c.Kind == ir.ConstraintCheck {
			found = true
			if !strings.Contains(c.Expression, "price") {
				t.Errorf("check expression = %q, expected to reference price", c.Expression)
			}
		}
	}
	if !found {
		t.Error("expected a CHECK constraint to be parsed from a table element")
	}
}

func TestParseForeignKeyConstraint(t *testing.T) {
	sql := `
CREATE TABLE orders (
    id bigint PRIMARY KEY,
    customer_id bigint REFERENCES customers(id) ON DELETE CASCADE
);
`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table := schema.Tables[0]
	var fk *ir.Constraint
	for i := range table.Constraints {
		if table.Constraints[i].Kind == ir.ConstraintForeignKey {
			fk = &table.Constraints[i]
		}
	}
	if fk == nil {
		t.Fatal("expected a foreign key constraint")
	}
	if fk.ReferencedTable != "customers" {
		t.Errorf("ReferencedTable = %q", fk.ReferencedTable)
	}
	if fk.OnDelete != ir.ActionCascade {
		t.Errorf("OnDelete = %q, want CASCADE", fk.OnDelete)
	}
}

func TestParseTableConstraintRecoversToken(t *testing.T) {
	sql := `
CREATE TABLE products (
    id bigint PRIMARY KEY,
    price numeric,
    CHECK (price > 0) -- relq:token k00001
);
`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	table := schema.Tables[0]
	var check *ir.Constraint
	for i := range table.Constraints {
		if table.Constraints[i].Kind == ir.ConstraintCheck {
			check = &table.Constraints[i]
		}
	}
	if check == nil {
		t.Fatal("expected a CHECK constraint")
	}
	if check.Token != "k00001" {
		t.Errorf("check constraint token = %q, want k00001", check.Token)
	}
}

func TestParseCreateIndexAttachesToTable(t *testing.T) {
	sql := `
CREATE TABLE widgets (id bigint PRIMARY KEY, sku text);
CREATE UNIQUE INDEX idx_widgets_sku ON widgets (sku);
`
	schema, diags, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	table := schema.Tables[0]
	if len(table.Indexes) != 1 {
		t.Fatalf("expected 1 index, got %d", len(table.Indexes))
	}
	if !table.Indexes[0].Unique {
		t.Error("expected index to be unique")
	}
	if len(table.Indexes[0].Columns) != 1 || table.Indexes[0].Columns[0] != "sku" {
		t.Errorf("index columns = %v", table.Indexes[0].Columns)
	}
}

func TestParseAlterTableAddColumn(t *testing.T) {
	sql := `
CREATE TABLE widgets (id bigint PRIMARY KEY);
ALTER TABLE widgets ADD COLUMN name text NOT NULL;
`
	schema, diags, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	table := schema.Tables[0]
	if len(table.Columns) != 2 {
		t.Fatalf("expected 2 columns after ALTER, got %d", len(table.Columns))
	}
	if table.Columns[1].Name != "name" || table.Columns[1].Nullable {
		t.Errorf("unexpected added column: %+v", table.Columns[1])
	}
}

func TestParseAlterTableUnknownTableIsDiagnostic(t *testing.T) {
	sql := `ALTER TABLE ghost ADD COLUMN x text;`
	_, diags, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse should not hard-fail on an unresolvable ALTER TABLE: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
}

func TestParseCreateEnum(t *testing.T) {
	sql := `CREATE TYPE status AS ENUM ('active', 'inactive');`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(schema.Enums) != 1 {
		t.Fatalf("expected 1 enum, got %d", len(schema.Enums))
	}
	if schema.Enums[0].Name != "status" {
		t.Errorf("enum name = %q", schema.Enums[0].Name)
	}
	if len(schema.Enums[0].Values) != 2 {
		t.Errorf("enum values = %v", schema.Enums[0].Values)
	}
}

func TestParseCreateSequence(t *testing.T) {
	sql := `CREATE SEQUENCE order_ids INCREMENT BY 1 START WITH 1000;`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(schema.Sequences) != 1 {
		t.Fatalf("expected 1 sequence, got %d", len(schema.Sequences))
	}
	seq := schema.Sequences[0]
	if seq.Name != "order_ids" || seq.Start != 1000 {
		t.Errorf("unexpected sequence: %+v", seq)
	}
}

func TestParseCreateDomain(t *testing.T) {
	sql := `CREATE DOMAIN positive_int AS integer NOT NULL CHECK (VALUE > 0);`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(schema.Domains) != 1 {
		t.Fatalf("expected 1 domain, got %d", len(schema.Domains))
	}
	d := schema.Domains[0]
	// Built-in types come back under their catalog names: INTEGER is int4.
	if d.Name != "positive_int" || d.BaseType != "int4" {
		t.Errorf("unexpected domain: %+v", d)
	}
	if !d.NotNull {
		t.Error("expected domain to be NOT NULL")
	}
	if len(d.Constraints) != 1 {
		t.Errorf("expected 1 CHECK constraint, got %v", d.Constraints)
	}
}

func TestParseCompositeType(t *testing.T) {
	sql := `CREATE TYPE address AS (street text, city text);`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(schema.CompositeTypes) != 1 {
		t.Fatalf("expected 1 composite type, got %d", len(schema.CompositeTypes))
	}
	ct := schema.CompositeTypes[0]
	if ct.Name != "address" || len(ct.Attributes) != 2 {
		t.Fatalf("unexpected composite type: %+v", ct)
	}
	if ct.Attributes[0].Name != "street" || ct.Attributes[1].Name != "city" {
		t.Errorf("unexpected attributes: %+v", ct.Attributes)
	}
}

func TestParseCreateView(t *testing.T) {
	sql := `CREATE VIEW active_users AS SELECT id FROM users WHERE active;`
	schema, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(schema.Views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(schema.Views))
	}
	if schema.Views[0].Materialized {
		t.Error("expected a plain view, not materialized")
	}
	if !strings.Contains(schema.Views[0].Definition, "SELECT") {
		t.Errorf("view definition missing SELECT body: %q", schema.Views[0].Definition)
	}
	if strings.Contains(strings.ToUpper(schema.Views[0].Definition), "CREATE VIEW") {
		t.Errorf("view definition should hold only the query, got %q", schema.Views[0].Definition)
	}
}
