package sync

import (
	"strings"
	"testing"

	"github.com/relq/relq/internal/ir"
)

func TestBuildPlanCreateTable(t *testing.T) {
	changes := []ir.Change{{
		Op:     ir.OpCreateTable,
		Object: "users",
		After: ir.Table{
			Name: "users",
			Columns: []ir.Column{
				{Name: "id", Type: "bigint", IsPrimaryKey: true},
				{Name: "email", Type: "text"},
			},
		},
	}}

	plan, err := BuildPlan(changes)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}
	sql := plan.Steps[0].SQL[0]
	if !strings.Contains(sql, "CREATE TABLE users") || !strings.Contains(sql, "id bigint") {
		t.Errorf("unexpected SQL: %s", sql)
	}
}

func TestBuildPlanAlterColumnOnlyEmitsChangedFacets(t *testing.T) {
	changes := []ir.Change{{
		Op:    ir.OpAlterColumn,
		Table: "users",
		Before: ir.Column{
			Name: "email", Type: "text", Nullable: true,
		},
		After: ir.Column{
			Name: "email", Type: "text", Nullable: false,
		},
	}}

	plan, err := BuildPlan(changes)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if len(plan.Steps[0].SQL) != 1 {
		t.Fatalf("expected exactly one ALTER statement, got %v", plan.Steps[0].SQL)
	}
	if !strings.Contains(plan.Steps[0].SQL[0], "SET NOT NULL") {
		t.Errorf("expected SET NOT NULL, got %s", plan.Steps[0].SQL[0])
	}
	if strings.Contains(plan.Steps[0].SQL[0], "TYPE") {
		t.Errorf("type didn't change, shouldn't emit TYPE clause: %s", plan.Steps[0].SQL[0])
	}
}

func TestBuildPlanAlterEnumAddsOnlyNewValues(t *testing.T) {
	changes := []ir.Change{{
		Op:     ir.OpAlterEnum,
		Object: "user_role",
		Before: ir.Enum{Name: "user_role", Values: []string{"admin", "member"}},
		After:  ir.Enum{Name: "user_role", Values: []string{"admin", "member", "guest"}},
	}}

	plan, err := BuildPlan(changes)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	stmts := plan.Steps[0].SQL
	if len(stmts) != 1 {
		t.Fatalf("expected 1 ADD VALUE statement, got %v", stmts)
	}
	if !strings.Contains(stmts[0], "ADD VALUE 'guest'") {
		t.Errorf("unexpected statement: %s", stmts[0])
	}
}

func TestBuildPlanDropTable(t *testing.T) {
	changes := []ir.Change{{Op: ir.OpDropTable, Object: "legacy", Table: "legacy"}}
	plan, err := BuildPlan(changes)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if plan.Steps[0].SQL[0] != "DROP TABLE legacy;" {
		t.Errorf("unexpected SQL: %s", plan.Steps[0].SQL[0])
	}
}

func TestBuildPlanUnhandledOpReturnsError(t *testing.T) {
	_, err := BuildPlan([]ir.Change{{Op: ir.ChangeOp("BOGUS")}})
	if err == nil {
		t.Fatal("expected an error for an unhandled change op")
	}
}
