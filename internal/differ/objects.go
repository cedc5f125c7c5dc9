package differ

import (
	"fmt"

	"github.com/relq/relq/internal/differ/astcmp"
	"github.com/relq/relq/internal/ir"
)

func diffExtensions(before, after []ir.Extension) []ir.Change {
	var changes []ir.Change
	beforeByName := indexExtensionsByName(before)
	afterByName := indexExtensionsByName(after)

	for name, a := range afterByName {
		b, exists := beforeByName[name]
		if !exists {
			changes = append(changes, ir.Change{
				Op: ir.OpCreateExtension, Object: name, Token: a.Token,
				Description: fmt.Sprintf("install extension %s", name), After: a,
			})
			continue
		}
		if b.Version != a.Version || b.Schema != a.Schema {
			changes = append(changes, ir.Change{
				Op: ir.OpDropExtension, Object: name, Token: b.Token,
				Description: fmt.Sprintf("drop extension %s (version changed)", name), Before: b,
			})
			changes = append(changes, ir.Change{
				Op: ir.OpCreateExtension, Object: name, Token: a.Token,
				Description: fmt.Sprintf("reinstall extension %s", name), After: a,
			})
		}
	}
	for name, b := range beforeByName {
		if _, exists := afterByName[name]; !exists {
			changes = append(changes, ir.Change{
				Op: ir.OpDropExtension, Object: name, Token: b.Token,
				Description: fmt.Sprintf("drop extension %s", name), Before: b,
			})
		}
	}
	return changes
}

func indexExtensionsByName(exts []ir.Extension) map[string]ir.Extension {
	m := make(map[string]ir.Extension, len(exts))
	for _, e := range exts {
		m[e.Name] = e
	}
	return m
}

func diffEnums(before, after []ir.Enum) []ir.Change {
	var changes []ir.Change

	beforeTokens, beforeNames := tokensAndNames(len(before), func(i int) (string, string) { return before[i].Token, before[i].Name })
	afterTokens, afterNames := tokensAndNames(len(after), func(i int) (string, string) { return after[i].Token, after[i].Name })
	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateEnum, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create enum %s", after[i].Name), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropEnum, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop enum %s", before[i].Name), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if !equalStringSlices(b.Values, a.Values) {
			changes = append(changes, ir.Change{
				Op: ir.OpAlterEnum, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("alter enum %s values", a.Name), Before: b, After: a,
			})
		}
	}
	return changes
}

func diffSequences(before, after []ir.Sequence) []ir.Change {
	var changes []ir.Change

	beforeTokens, beforeNames := tokensAndNames(len(before), func(i int) (string, string) { return before[i].Token, before[i].Name })
	afterTokens, afterNames := tokensAndNames(len(after), func(i int) (string, string) { return after[i].Token, after[i].Name })
	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateSequence, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create sequence %s", after[i].Name), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropSequence, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop sequence %s", before[i].Name), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if sequenceChanged(b, a) {
			changes = append(changes, ir.Change{
				Op: ir.OpAlterSequence, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("alter sequence %s", a.Name), Before: b, After: a,
			})
		}
	}
	return changes
}

func sequenceChanged(b, a ir.Sequence) bool {
	if b.Increment != a.Increment || b.Start != a.Start || b.Cache != a.Cache || b.Cycle != a.Cycle {
		return true
	}
	return !equalOptionalInt64(b.Min, a.Min) || !equalOptionalInt64(b.Max, a.Max)
}

func equalOptionalInt64(a, b *int64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func diffViews(before, after []ir.View) []ir.Change {
	var changes []ir.Change

	beforeTokens, beforeNames := tokensAndNames(len(before), func(i int) (string, string) { return before[i].Token, before[i].Name })
	afterTokens, afterNames := tokensAndNames(len(after), func(i int) (string, string) { return after[i].Token, after[i].Name })
	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateView, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create view %s", after[i].Name), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropView, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop view %s", before[i].Name), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if b.Materialized != a.Materialized || !astcmp.ExpressionsEquivalent(b.Definition, a.Definition) {
			changes = append(changes, ir.Change{
				Op: ir.OpReplaceView, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("replace view %s", a.Name), Before: b, After: a,
			})
		}
	}
	return changes
}

func diffFunctions(before, after []ir.Function) []ir.Change {
	var changes []ir.Change

	beforeTokens, beforeNames := tokensAndNames(len(before), func(i int) (string, string) { return before[i].Token, before[i].Name })
	afterTokens, afterNames := tokensAndNames(len(after), func(i int) (string, string) { return after[i].Token, after[i].Name })
	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateFunction, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create function %s", after[i].Name), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropFunction, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop function %s", before[i].Name), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if functionChanged(b, a) {
			changes = append(changes, ir.Change{
				Op: ir.OpReplaceFunction, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("replace function %s", a.Name), Before: b, After: a,
			})
		}
	}
	return changes
}

func functionChanged(b, a ir.Function) bool {
	if b.ReturnType != a.ReturnType || b.Language != a.Language || b.Volatility != a.Volatility || b.SecurityDefiner != a.SecurityDefiner {
		return true
	}
	if len(b.Args) != len(a.Args) {
		return true
	}
	for i := range b.Args {
		if b.Args[i].Name != a.Args[i].Name || b.Args[i].Type != a.Args[i].Type {
			return true
		}
	}
	return !astcmp.FunctionBodiesEquivalent(b.Body, a.Body, a.Language)
}

func diffTriggers(before, after []ir.Trigger) []ir.Change {
	var changes []ir.Change

	beforeTokens, beforeNames := tokensAndNames(len(before), func(i int) (string, string) { return before[i].Token, before[i].Name })
	afterTokens, afterNames := tokensAndNames(len(after), func(i int) (string, string) { return after[i].Token, after[i].Name })
	pairs, onlyBefore, onlyAfter := matchByTokenThenName(beforeTokens, beforeNames, afterTokens, afterNames)

	for _, i := range onlyAfter {
		changes = append(changes, ir.Change{
			Op: ir.OpCreateTrigger, Table: after[i].Table, Object: after[i].Name, Token: after[i].Token,
			Description: fmt.Sprintf("create trigger %s on %s", after[i].Name, after[i].Table), After: after[i],
		})
	}
	for _, i := range onlyBefore {
		changes = append(changes, ir.Change{
			Op: ir.OpDropTrigger, Table: before[i].Table, Object: before[i].Name, Token: before[i].Token,
			Description: fmt.Sprintf("drop trigger %s on %s", before[i].Name, before[i].Table), Before: before[i],
		})
	}
	for _, p := range pairs {
		b, a := before[p.beforeIdx], after[p.afterIdx]
		if triggerChanged(b, a) {
			changes = append(changes, ir.Change{
				Op: ir.OpDropTrigger, Table: b.Table, Object: b.Name, Token: b.Token,
				Description: fmt.Sprintf("drop trigger %s on %s (definition changed)", b.Name, b.Table), Before: b,
			})
			changes = append(changes, ir.Change{
				Op: ir.OpCreateTrigger, Table: a.Table, Object: a.Name, Token: a.Token,
				Description: fmt.Sprintf("recreate trigger %s on %s", a.Name, a.Table), After: a,
			})
		}
	}
	return changes
}

func triggerChanged(b, a ir.Trigger) bool {
	if b.Table != a.Table || b.Timing != a.Timing || b.ForEach != a.ForEach || b.Function != a.Function {
		return true
	}
	return !equalStringSlices(eventStrings(b.Events), eventStrings(a.Events))
}

func eventStrings(events []ir.TriggerEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}

func tokensAndNames(n int, get func(i int) (token, name string)) ([]string, []string) {
	tokens := make([]string, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		tokens[i], names[i] = get(i)
	}
	return tokens, names
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
