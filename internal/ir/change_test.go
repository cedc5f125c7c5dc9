package ir

import (
	"sort"
	"testing"
)

func TestOrderIndexCreatesBeforeDrops(t *testing.T) {
	if OrderIndex(OpCreateTable) >= OrderIndex(OpDropTable) {
		t.Errorf("expected CREATE_TABLE to order before DROP_TABLE")
	}
	if OrderIndex(OpCreateColumn) >= OrderIndex(OpCreateIndex) {
		t.Errorf("expected column changes to order before index changes within a table")
	}
	if OrderIndex(OpCreateIndex) >= OrderIndex(OpDropColumn) {
		t.Errorf("expected index creation to order before column drops")
	}
	if OrderIndex(OpCreateIndex) >= OrderIndex(OpCreateConstraint) {
		t.Errorf("expected index creation to order before constraint creation")
	}
	if OrderIndex(OpDropConstraint) >= OrderIndex(OpDropIndex) {
		t.Errorf("expected constraint drops to order before index drops (reverse of create order)")
	}
	if OrderIndex(OpDropIndex) >= OrderIndex(OpDropColumn) {
		t.Errorf("expected index drops to order before column drops (reverse of create order)")
	}
}

func TestChangesSortDeterministically(t *testing.T) {
	changes := []Change{
		{Op: OpDropTable, Object: "b"},
		{Op: OpCreateTable, Object: "a"},
		{Op: OpCreateColumn, Object: "a.x"},
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return OrderIndex(changes[i].Op) < OrderIndex(changes[j].Op)
	})
	if changes[0].Op != OpCreateTable || changes[len(changes)-1].Op != OpDropTable {
		t.Fatalf("unexpected order: %+v", changes)
	}
}
