package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/relq/relq/internal/ir"
)

// ComputeSourceHash hashes the raw generated SQL text a snapshot was
// produced from, so Store can detect when schema.relq.sql has drifted
// out from under a stored snapshot without re-parsing it.
func ComputeSourceHash(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// ComputeSchemaHash produces a deterministic hash of a schema's
// structure, independent of slice ordering or cosmetic type spelling:
// every collection of named objects is sorted by name before hashing,
// and columns hash their logical type rather than the raw dialect type.
// Defaults and generated expressions are hashed as written, so two
// spellings of the same default give different hashes.
func ComputeSchemaHash(schema *ir.Schema) (string, error) {
	if schema == nil {
		schema = &ir.Schema{}
	}
	jsonBytes, err := json.Marshal(canonicalizeSchema(schema))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeSchema(schema *ir.Schema) map[string]interface{} {
	out := map[string]interface{}{
		"tables": canonicalizeTables(schema.Tables),
	}
	if len(schema.Enums) > 0 {
		out["enums"] = canonicalizeEnums(schema.Enums)
	}
	if len(schema.Sequences) > 0 {
		out["sequences"] = canonicalizeSequences(schema.Sequences)
	}
	if len(schema.Views) > 0 {
		out["views"] = canonicalizeViews(schema.Views)
	}
	if len(schema.Functions) > 0 {
		out["functions"] = canonicalizeFunctions(schema.Functions)
	}
	if len(schema.Triggers) > 0 {
		out["triggers"] = canonicalizeTriggers(schema.Triggers)
	}
	if len(schema.Extensions) > 0 {
		out["extensions"] = canonicalizeExtensions(schema.Extensions)
	}
	return out
}

func canonicalizeTables(tables []ir.Table) []interface{} {
	sorted := append([]ir.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, t := range sorted {
		m := map[string]interface{}{
			"name":    t.Name,
			"columns": canonicalizeColumns(t.Columns),
		}
		if len(t.Indexes) > 0 {
			m["indexes"] = canonicalizeIndexes(t.Indexes)
		}
		if len(t.Constraints) > 0 {
			m["constraints"] = canonicalizeConstraints(t.Constraints)
		}
		if t.RLSEnabled {
			m["rls_enabled"] = true
		}
		result = append(result, m)
	}
	return result
}

func canonicalizeColumns(columns []ir.Column) []interface{} {
	sorted := append([]ir.Column(nil), columns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, c := range sorted {
		m := map[string]interface{}{
			"name":           c.Name,
			"type":           c.LogicalType(),
			"nullable":       c.Nullable,
			"is_primary_key": c.IsPrimaryKey,
		}
		if c.Unique {
			m["unique"] = true
		}
		if c.Default != nil {
			m["default"] = *c.Default
		}
		if c.Generated != nil {
			m["generated"] = *c.Generated
		}
		result = append(result, m)
	}
	return result
}

func canonicalizeIndexes(indexes []ir.Index) []interface{} {
	sorted := append([]ir.Index(nil), indexes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, idx := range sorted {
		m := map[string]interface{}{
			"name":    idx.Name,
			"columns": idx.Columns,
			"unique":  idx.Unique,
		}
		if idx.Method != "" {
			m["method"] = idx.Method
		}
		if idx.Predicate != "" {
			m["predicate"] = idx.Predicate
		}
		result = append(result, m)
	}
	return result
}

func canonicalizeConstraints(constraints []ir.Constraint) []interface{} {
	sorted := append([]ir.Constraint(nil), constraints...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, c := range sorted {
		m := map[string]interface{}{
			"name":    c.Name,
			"kind":    c.Kind,
			"columns": c.Columns,
		}
		if c.Expression != "" {
			m["expression"] = c.Expression
		}
		if c.ReferencedTable != "" {
			m["referenced_table"] = c.ReferencedTable
			m["referenced_columns"] = c.ReferencedColumns
			m["on_delete"] = c.OnDelete
			m["on_update"] = c.OnUpdate
		}
		result = append(result, m)
	}
	return result
}

func canonicalizeEnums(enums []ir.Enum) []interface{} {
	sorted := append([]ir.Enum(nil), enums...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, e := range sorted {
		result = append(result, map[string]interface{}{"name": e.Name, "values": e.Values})
	}
	return result
}

func canonicalizeSequences(sequences []ir.Sequence) []interface{} {
	sorted := append([]ir.Sequence(nil), sequences...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, s := range sorted {
		result = append(result, map[string]interface{}{
			"name":      s.Name,
			"increment": s.Increment,
			"start":     s.Start,
			"cycle":     s.Cycle,
		})
	}
	return result
}

func canonicalizeViews(views []ir.View) []interface{} {
	sorted := append([]ir.View(nil), views...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, v := range sorted {
		result = append(result, map[string]interface{}{
			"name":         v.Name,
			"definition":   v.Definition,
			"materialized": v.Materialized,
		})
	}
	return result
}

func canonicalizeFunctions(functions []ir.Function) []interface{} {
	sorted := append([]ir.Function(nil), functions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, f := range sorted {
		result = append(result, map[string]interface{}{
			"name":        f.Name,
			"return_type": f.ReturnType,
			"language":    f.Language,
			"body":        f.Body,
		})
	}
	return result
}

func canonicalizeTriggers(triggers []ir.Trigger) []interface{} {
	sorted := append([]ir.Trigger(nil), triggers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, t := range sorted {
		result = append(result, map[string]interface{}{
			"name":     t.Name,
			"table":    t.Table,
			"timing":   t.Timing,
			"events":   t.Events,
			"function": t.Function,
		})
	}
	return result
}

func canonicalizeExtensions(extensions []ir.Extension) []interface{} {
	sorted := append([]ir.Extension(nil), extensions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]interface{}, 0, len(sorted))
	for _, e := range sorted {
		result = append(result, map[string]interface{}{"name": e.Name, "version": e.Version})
	}
	return result
}
