// Package differ compares two schema snapshots and produces an
// ordered set of changes. Matching prefers tracking tokens over names
// wherever both sides carry one, so a rename is reported as a rename
// rather than a drop-then-create; name-only matching is the fallback
// for objects a hand-written source file never got a token for.
package differ

import (
	"sort"

	"github.com/relq/relq/internal/ir"
)

// Diff compares before (the current/introspected schema) against
// after (the desired/parsed schema) and returns every change needed to
// bring before into after, in dependency-safe order: creates and
// renames before drops, and within a table, columns before indexes
// before constraints (mirroring codegen's own emission order).
func Diff(before, after *ir.Schema) []ir.Change {
	var changes []ir.Change
	if before == nil {
		before = &ir.Schema{}
	}
	if after == nil {
		after = &ir.Schema{}
	}

	changes = append(changes, diffExtensions(before.Extensions, after.Extensions)...)
	changes = append(changes, diffEnums(before.Enums, after.Enums)...)
	changes = append(changes, diffSequences(before.Sequences, after.Sequences)...)
	changes = append(changes, diffTables(before.Tables, after.Tables)...)
	changes = append(changes, diffViews(before.Views, after.Views)...)
	changes = append(changes, diffFunctions(before.Functions, after.Functions)...)
	changes = append(changes, diffTriggers(before.Triggers, after.Triggers)...)

	sort.SliceStable(changes, func(i, j int) bool {
		return ir.OrderIndex(changes[i].Op) < ir.OrderIndex(changes[j].Op)
	})
	return changes
}

// matched pairs a before/after index for objects found on both sides
// of a token-first-then-name match.
type matched struct {
	beforeIdx int
	afterIdx  int
}

// matchByTokenThenName matches beforeN/afterN items by token first
// (when both sides carry a non-empty token for the same value), then
// by name for anything left over. It returns matched pairs plus the
// indices unmatched on each side (creates and drops).
func matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames []string) (pairs []matched, onlyBefore, onlyAfter []int) {
	beforeUsed := make([]bool, len(beforeTokens))
	afterUsed := make([]bool, len(afterTokens))

	afterByToken := make(map[string]int, len(afterTokens))
	for j, tok := range afterTokens {
		if tok != "" {
			afterByToken[tok] = j
		}
	}
	for i, tok := range beforeTokens {
		if tok == "" {
			continue
		}
		j, ok := afterByToken[tok]
		if !ok || afterUsed[j] {
			continue
		}
		pairs = append(pairs, matched{beforeIdx: i, afterIdx: j})
		beforeUsed[i] = true
		afterUsed[j] = true
	}

	afterByName := make(map[string]int, len(afterNames))
	for j, name := range afterNames {
		if !afterUsed[j] {
			afterByName[name] = j
		}
	}
	for i, name := range beforeNames {
		if beforeUsed[i] {
			continue
		}
		j, ok := afterByName[name]
		if !ok || afterUsed[j] {
			continue
		}
		pairs = append(pairs, matched{beforeIdx: i, afterIdx: j})
		beforeUsed[i] = true
		afterUsed[j] = true
	}

	for i, used := range beforeUsed {
		if !used {
			onlyBefore = append(onlyBefore, i)
		}
	}
	for j, used := range afterUsed {
		if !used {
			onlyAfter = append(onlyAfter, j)
		}
	}
	return pairs, onlyBefore, onlyAfter
}
