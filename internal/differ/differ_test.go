package differ

import (
	"testing"

	"github.com/relq/relq/internal/ir"
)

func ptr(s string) *string { return &s }

func TestDiffIdenticalSchemasProducesNoChanges(t *testing.T) {
	schema := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Columns: []ir.Column{{Name: "id", Type: "bigint", IsPrimaryKey: true, Token: "c00001"}},
	}}}
	changes := Diff(schema, schema)
	if len(changes) != 0 {
		t.Fatalf("expected no changes between identical schemas, got %v", changes)
	}
}

func TestDiffDetectsNewTable(t *testing.T) {
	before := &ir.Schema{}
	after := &ir.Schema{Tables: []ir.Table{{Name: "users", Token: "t00001"}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpCreateTable {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiffDetectsDroppedTable(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{Name: "users", Token: "t00001"}}}
	after := &ir.Schema{}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpDropTable {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiffDetectsTableRenameByToken(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{Name: "accounts", Token: "t00001"}}}
	after := &ir.Schema{Tables: []ir.Table{{Name: "customers", Token: "t00001"}}}
	changes := Diff(before, after)
	if len(changes) != 1 {
		t.Fatalf("expected exactly a rename, got %v", changes)
	}
	if changes[0].Op != ir.OpRenameTable {
		t.Errorf("op = %v, want OpRenameTable", changes[0].Op)
	}
}

func TestDiffWithoutTokensFallsBackToNameMatchingAsDropCreate(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{Name: "accounts"}}}
	after := &ir.Schema{Tables: []ir.Table{{Name: "customers"}}}
	changes := Diff(before, after)
	if len(changes) != 2 {
		t.Fatalf("expected a drop+create pair without tokens, got %v", changes)
	}
}

func TestDiffDetectsColumnRenameByToken(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Columns: []ir.Column{{Name: "mail", Type: "text", Token: "c00002"}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Columns: []ir.Column{{Name: "email", Type: "text", Token: "c00002"}},
	}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpRenameColumn {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiffDetectsColumnTypeChange(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Columns: []ir.Column{{Name: "age", Type: "int4", Token: "c00002"}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Columns: []ir.Column{{Name: "age", Type: "bigint", Token: "c00002"}},
	}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpAlterColumn {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiffIgnoresParenthesizedDefaultChange(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "orders", Token: "t00001",
		Columns: []ir.Column{{Name: "total", Type: "numeric", Token: "c00002", Default: ptr("(0)")}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{
		Name: "orders", Token: "t00001",
		Columns: []ir.Column{{Name: "total", Type: "numeric", Token: "c00002", Default: ptr("0")}},
	}}}
	changes := Diff(before, after)
	if len(changes) != 0 {
		t.Fatalf("expected default reformatting to produce no change, got %v", changes)
	}
}

func TestDiffOrdersCreatesBeforeDrops(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{Name: "old_table", Token: "t00001"}}}
	after := &ir.Schema{Tables: []ir.Table{{Name: "new_table", Token: "t00002"}}}
	changes := Diff(before, after)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %v", changes)
	}
	if changes[0].Op != ir.OpCreateTable || changes[1].Op != ir.OpDropTable {
		t.Errorf("expected create before drop, got %v then %v", changes[0].Op, changes[1].Op)
	}
}

func TestDiffDetectsCheckConstraintChangeIgnoringFormatting(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "products", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "chk_price", Kind: ir.ConstraintCheck, Columns: []string{"price"}, Expression: "price > 0", Token: "x00001"}},
	}}}
	afterSame := &ir.Schema{Tables: []ir.Table{{
		Name: "products", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "chk_price", Kind: ir.ConstraintCheck, Columns: []string{"price"}, Expression: "(price > 0)", Token: "x00001"}},
	}}}
	if changes := Diff(before, afterSame); len(changes) != 0 {
		t.Fatalf("expected reformatted CHECK expression to be a no-op, got %v", changes)
	}

	afterChanged := &ir.Schema{Tables: []ir.Table{{
		Name: "products", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "chk_price", Kind: ir.ConstraintCheck, Columns: []string{"price"}, Expression: "price >= 0", Token: "x00001"}},
	}}}
	changes := Diff(before, afterChanged)
	if len(changes) != 2 {
		t.Fatalf("expected a drop+create pair for the changed CHECK, got %v", changes)
	}
}

func TestDiffMatchesRenamedCheckConstraintByReferencedColumn(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "products", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "products_price_check", Kind: ir.ConstraintCheck, Token: "", Expression: "price > 0"}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{
		Name: "products", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "chk_positive_price", Kind: ir.ConstraintCheck, Token: "", Expression: "price > 0"}},
	}}}
	if changes := Diff(before, after); len(changes) != 0 {
		t.Fatalf("expected a differently-named but equivalent CHECK on the same column to be a no-op, got %v", changes)
	}
}

func TestDiffIgnoresSingleColumnUniqueConstraint(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "users_email_key", Kind: ir.ConstraintUnique, Columns: []string{"email"}}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{
		Name: "users", Token: "t00001",
	}}}
	if changes := Diff(before, after); len(changes) != 0 {
		t.Fatalf("expected single-column UNIQUE to be treated as a column flag, not a constraint change, got %v", changes)
	}
}

func TestDiffDetectsMultiColumnUniqueConstraintChange(t *testing.T) {
	before := &ir.Schema{Tables: []ir.Table{{
		Name: "memberships", Token: "t00001",
		Constraints: []ir.Constraint{{Name: "memberships_unique", Kind: ir.ConstraintUnique, Columns: []string{"org_id", "user_id"}, Token: "x00001"}},
	}}}
	after := &ir.Schema{Tables: []ir.Table{{Name: "memberships", Token: "t00001"}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpDropConstraint {
		t.Fatalf("expected a dropped multi-column UNIQUE constraint, got %v", changes)
	}
}

func TestDiffDetectsEnumValueAddition(t *testing.T) {
	before := &ir.Schema{Enums: []ir.Enum{{Name: "status", Values: []string{"active"}, Token: "e00001"}}}
	after := &ir.Schema{Enums: []ir.Enum{{Name: "status", Values: []string{"active", "archived"}, Token: "e00001"}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpAlterEnum {
		t.Fatalf("changes = %v", changes)
	}
}

func TestDiffDetectsViewDefinitionChange(t *testing.T) {
	before := &ir.Schema{Views: []ir.View{{Name: "active_users", Definition: "SELECT id FROM users WHERE active", Token: "v00001"}}}
	after := &ir.Schema{Views: []ir.View{{Name: "active_users", Definition: "SELECT id FROM users WHERE NOT active", Token: "v00001"}}}
	changes := Diff(before, after)
	if len(changes) != 1 || changes[0].Op != ir.OpReplaceView {
		t.Fatalf("changes = %v", changes)
	}
}
