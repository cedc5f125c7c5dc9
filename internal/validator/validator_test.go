package validator

import (
	"testing"

	"github.com/relq/relq/internal/dialect"
	"github.com/relq/relq/internal/ir"
)

func TestValidateSyntaxCatchesBadStatement(t *testing.T) {
	source := "CREATE TABLE users (id bigint PRIMARY KEY);\nCREATE TALBE oops (id bigint);"
	diags := ValidateSyntax(source)
	if len(diags) == 0 {
		t.Fatal("expected at least one syntax diagnostic")
	}
	if diags[0].Code != "SYNTAX_ERROR" {
		t.Errorf("code = %q, want SYNTAX_ERROR", diags[0].Code)
	}
}

func TestValidateSyntaxCleanSourceHasNoDiagnostics(t *testing.T) {
	source := "CREATE TABLE users (id bigint PRIMARY KEY, email text NOT NULL);"
	diags := ValidateSyntax(source)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestValidateDangerousPatternsFlagsDropTable(t *testing.T) {
	diags := ValidateDangerousPatterns("DROP TABLE users;")
	if len(diags) != 1 || diags[0].Code != "dangerous_drop_table" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDangerousPatternsFlagsTruncate(t *testing.T) {
	diags := ValidateDangerousPatterns("TRUNCATE TABLE users;")
	if len(diags) != 1 || diags[0].Code != "dangerous_truncate" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDangerousPatternsFlagsDeleteWithoutWhere(t *testing.T) {
	diags := ValidateDangerousPatterns("DELETE FROM users;")
	if len(diags) != 1 || diags[0].Code != "dangerous_delete_all" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDangerousPatternsAllowsDeleteWithWhere(t *testing.T) {
	diags := ValidateDangerousPatterns("DELETE FROM users WHERE id = 1;")
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestValidateDangerousPatternsFlagsDropColumn(t *testing.T) {
	diags := ValidateDangerousPatterns("ALTER TABLE users DROP COLUMN email;")
	if len(diags) != 1 || diags[0].Code != "dangerous_drop_column" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDeclarativeFlagsCreateOrReplace(t *testing.T) {
	diags := ValidateDeclarative("CREATE OR REPLACE VIEW v AS SELECT 1;")
	if len(diags) != 1 || diags[0].Code != "non_declarative_create_or_replace" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDeclarativeFlagsIfNotExists(t *testing.T) {
	diags := ValidateDeclarative("CREATE TABLE IF NOT EXISTS users (id bigint);")
	if len(diags) != 1 || diags[0].Code != "non_declarative_if_not_exists" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDeclarativeFlagsTransactionControl(t *testing.T) {
	diags := ValidateDeclarative("BEGIN;\nCREATE TABLE users (id bigint);\nCOMMIT;")
	if len(diags) != 1 || diags[0].Code != "non_declarative_transaction_control" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateSchemaFlagsMissingPrimaryKey(t *testing.T) {
	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "users",
		Columns: []ir.Column{{Name: "email", Type: "text"}},
	}}}
	diags := ValidateSchema(schema)
	var found bool
	for _, d := range diags {
		if d.Code == "no_primary_key" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected no_primary_key diagnostic, got %v", diags)
	}
}

func TestValidateSchemaFlagsDuplicateColumn(t *testing.T) {
	schema := &ir.Schema{Tables: []ir.Table{{
		Name: "users",
		Columns: []ir.Column{
			{Name: "id", Type: "bigint", IsPrimaryKey: true},
			{Name: "id", Type: "bigint"},
		},
	}}}
	diags := ValidateSchema(schema)
	var found bool
	for _, d := range diags {
		if d.Code == "duplicate_column" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate_column diagnostic, got %v", diags)
	}
}

func TestValidateSchemaFlagsDanglingForeignKey(t *testing.T) {
	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "orders",
		Columns: []ir.Column{{Name: "id", Type: "bigint", IsPrimaryKey: true}, {Name: "customer_id", Type: "bigint"}},
		Constraints: []ir.Constraint{{
			Name: "orders_customer_id_fkey", Kind: ir.ConstraintForeignKey,
			Columns: []string{"customer_id"}, ReferencedTable: "customers", ReferencedColumns: []string{"id"},
		}},
	}}}
	diags := ValidateSchema(schema)
	var found bool
	for _, d := range diags {
		if d.Code == "invalid_fk_table" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected invalid_fk_table diagnostic, got %v", diags)
	}
}

func TestValidateSchemaFlagsInvalidIndexColumn(t *testing.T) {
	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "users",
		Columns: []ir.Column{{Name: "id", Type: "bigint", IsPrimaryKey: true}},
		Indexes: []ir.Index{{Name: "idx_ghost", Columns: []string{"ghost"}}},
	}}}
	diags := ValidateSchema(schema)
	var found bool
	for _, d := range diags {
		if d.Code == "invalid_index_column" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected invalid_index_column diagnostic, got %v", diags)
	}
}

func TestValidateDialectCompatibilityFlagsUnsupportedEnum(t *testing.T) {
	adapter := &dialect.Adapter{Name: "sqlite", Features: dialect.Features{SupportsEnums: false}}
	schema := &ir.Schema{Enums: []ir.Enum{{Name: "status", Values: []string{"a", "b"}}}}
	diags := ValidateDialectCompatibility(schema, adapter)
	if len(diags) != 1 || diags[0].Code != "ENUM_UNSUPPORTED" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestValidateDialectCompatibilityFlagsUnsupportedType(t *testing.T) {
	adapter := &dialect.Adapter{
		Name: "mysql",
		TypeMap: dialect.TypeMap{
			"tsvector": dialect.TypeEntry{Status: dialect.TypeUnsupported, ErrorCode: "MYSQL_E010", Alternative: "a fulltext index"},
		},
	}
	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "docs",
		Columns: []ir.Column{{Name: "body", Type: "tsvector"}},
	}}}
	diags := ValidateDialectCompatibility(schema, adapter)
	var found bool
	for _, d := range diags {
		if d.Code == "MYSQL_E010" && d.Severity == ir.SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("expected MYSQL_E010 error diagnostic, got %v", diags)
	}
}

func TestValidateDialectCompatibilityFlagsBlockedIndexMethod(t *testing.T) {
	adapter := &dialect.Adapter{
		Name:            "cockroachdb",
		BlockedFeatures: dialect.BlockedFeatures{IndexMethods: []string{"GIST"}},
	}
	schema := &ir.Schema{Tables: []ir.Table{{
		Name:    "places",
		Columns: []ir.Column{{Name: "id", Type: "bigint"}},
		Indexes: []ir.Index{{Name: "idx_geo", Method: ir.IndexGIST, Columns: []string{"id"}}},
	}}}
	diags := ValidateDialectCompatibility(schema, adapter)
	var found bool
	for _, d := range diags {
		if d.Code == "INDEX_METHOD_UNSUPPORTED" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected INDEX_METHOD_UNSUPPORTED diagnostic, got %v", diags)
	}
}
