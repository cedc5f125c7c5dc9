// Package codegen renders a schema IR to the declarative
// schema.relq.sql file, the inverse of internal/parser. Every object
// gets a trailing tracking-token comment on its own declaration line,
// assigned by a two-pass process: pass one merges tokens forward from
// whatever schema.relq.sql already exists on disk (matching by name,
// since that's the only thing to match by before tokens exist at all),
// pass two mints fresh ones for anything still missing. Formatting
// itself generalizes the teacher's per-object generator functions
// (one ALTER statement at a time) into "assemble one full file".
package codegen

import (
	"fmt"
	"strings"

	"github.com/relq/relq/internal/ir"
	"github.com/relq/relq/internal/parser"
)

// Header is the banner codegen writes at the top of every generated
// file, in the teacher's own "# Generated by: ..." comment style.
const Header = "-- Generated by: relq\n-- Hand edits are preserved across sync: relq matches objects by\n-- their \"-- relq:token\" comment, not position, so reordering or\n-- reformatting a block is always safe.\n\n"

// Generate renders schema to a complete schema.relq.sql body. priorSource
// is the previous generation's output (empty string if this is the
// first generation for the project); it is re-parsed so tokens survive
// across regenerations instead of every object looking "new" every
// time relq runs.
func Generate(schema *ir.Schema, priorSource string) (string, error) {
	next := cloneSchema(schema)

	if strings.TrimSpace(priorSource) != "" {
		prior, _, err := parser.Parse(priorSource)
		if err != nil {
			return "", fmt.Errorf("re-parsing prior generation: %w", err)
		}
		mergeTokens(next, prior)
	}

	var counter ir.TokenCounter
	assignTokens(next, &counter)

	var b strings.Builder
	b.WriteString(Header)

	for _, e := range next.Extensions {
		writeExtension(&b, e)
	}
	for _, d := range next.Domains {
		writeDomain(&b, d)
	}
	for _, c := range next.CompositeTypes {
		writeCompositeType(&b, c)
	}
	for _, e := range next.Enums {
		writeEnum(&b, e)
	}
	for _, s := range next.Sequences {
		writeSequence(&b, s)
	}
	for _, t := range next.Tables {
		writeTable(&b, t)
	}
	for _, v := range next.Views {
		writeView(&b, v)
	}
	for _, f := range next.Functions {
		writeFunction(&b, f)
	}
	for _, t := range next.Triggers {
		writeTrigger(&b, t)
	}

	return b.String(), nil
}

// cloneSchema makes a deep-enough copy that mergeTokens/assignTokens
// can mutate tokens in place without surprising the caller, who still
// holds the original *ir.Schema.
func cloneSchema(schema *ir.Schema) *ir.Schema {
	if schema == nil {
		return &ir.Schema{}
	}
	next := &ir.Schema{
		SearchPath:     append([]string(nil), schema.SearchPath...),
		Enums:          append([]ir.Enum(nil), schema.Enums...),
		Domains:        append([]ir.Domain(nil), schema.Domains...),
		CompositeTypes: append([]ir.CompositeType(nil), schema.CompositeTypes...),
		Sequences:      append([]ir.Sequence(nil), schema.Sequences...),
		Views:          append([]ir.View(nil), schema.Views...),
		Functions:      append([]ir.Function(nil), schema.Functions...),
		Triggers:       append([]ir.Trigger(nil), schema.Triggers...),
		Extensions:     append([]ir.Extension(nil), schema.Extensions...),
	}
	next.Tables = make([]ir.Table, len(schema.Tables))
	for i, t := range schema.Tables {
		clone := t
		clone.Columns = append([]ir.Column(nil), t.Columns...)
		clone.Indexes = append([]ir.Index(nil), t.Indexes...)
		clone.Constraints = append([]ir.Constraint(nil), t.Constraints...)
		clone.Policies = append([]ir.Policy(nil), t.Policies...)
		next.Tables[i] = clone
	}
	return next
}
