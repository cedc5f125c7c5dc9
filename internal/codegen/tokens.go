package codegen

import "github.com/relq/relq/internal/ir"

// mergeTokens carries tracking tokens from a previously-generated
// schema onto the schema about to be regenerated, matching by name
// within each object collection. Any object new has no match in prior
// keeps whatever token it already carries (usually none yet); assignTokens
// fills in the rest. Matching by name here, rather than
// differ's token-first matching, is deliberate: prior is the thing
// tokens are being recovered *from*, so there's nothing to match by yet.
func mergeTokens(next, prior *ir.Schema) {
	if prior == nil {
		return
	}

	priorTables := make(map[string]ir.Table, len(prior.Tables))
	for _, t := range prior.Tables {
		priorTables[t.Name] = t
	}
	for i := range next.Tables {
		t := &next.Tables[i]
		old, ok := priorTables[t.Name]
		if !ok {
			continue
		}
		if t.Token == "" {
			t.Token = old.Token
		}
		mergeColumnTokens(t.Columns, old.Columns)
		mergeIndexTokens(t.Indexes, old.Indexes)
		mergeConstraintTokens(t.Constraints, old.Constraints)
	}

	mergeByName(next.Enums, prior.Enums, func(e ir.Enum) string { return e.Name }, func(e *ir.Enum) *string { return &e.Token }, func(e ir.Enum) string { return e.Token })
	mergeByName(next.Domains, prior.Domains, func(d ir.Domain) string { return d.Name }, func(d *ir.Domain) *string { return &d.Token }, func(d ir.Domain) string { return d.Token })
	mergeByName(next.CompositeTypes, prior.CompositeTypes, func(c ir.CompositeType) string { return c.Name }, func(c *ir.CompositeType) *string { return &c.Token }, func(c ir.CompositeType) string { return c.Token })
	mergeByName(next.Sequences, prior.Sequences, func(s ir.Sequence) string { return s.Name }, func(s *ir.Sequence) *string { return &s.Token }, func(s ir.Sequence) string { return s.Token })
	mergeByName(next.Views, prior.Views, func(v ir.View) string { return v.Name }, func(v *ir.View) *string { return &v.Token }, func(v ir.View) string { return v.Token })
	mergeByName(next.Functions, prior.Functions, func(f ir.Function) string { return f.Name }, func(f *ir.Function) *string { return &f.Token }, func(f ir.Function) string { return f.Token })
	mergeByName(next.Triggers, prior.Triggers, func(t ir.Trigger) string { return t.Name }, func(t *ir.Trigger) *string { return &t.Token }, func(t ir.Trigger) string { return t.Token })
	mergeByName(next.Extensions, prior.Extensions, func(e ir.Extension) string { return e.Name }, func(e *ir.Extension) *string { return &e.Token }, func(e ir.Extension) string { return e.Token })
}

// mergeByName is the generic shape of the per-collection merge above:
// find the prior item with the same name, and if the next item has no
// token yet, copy the prior one over.
func mergeByName[T any](next, prior []T, nameOf func(T) string, tokenOf func(*T) *string, priorTokenOf func(T) string) {
	priorByName := make(map[string]T, len(prior))
	for _, p := range prior {
		priorByName[nameOf(p)] = p
	}
	for i := range next {
		old, ok := priorByName[nameOf(next[i])]
		if !ok {
			continue
		}
		tok := tokenOf(&next[i])
		if *tok == "" {
			*tok = priorTokenOf(old)
		}
	}
}

func mergeColumnTokens(next, prior []ir.Column) {
	priorByName := make(map[string]ir.Column, len(prior))
	for _, c := range prior {
		priorByName[c.Name] = c
	}
	for i := range next {
		if next[i].Token != "" {
			continue
		}
		if old, ok := priorByName[next[i].Name]; ok {
			next[i].Token = old.Token
		}
	}
}

func mergeIndexTokens(next, prior []ir.Index) {
	priorByName := make(map[string]ir.Index, len(prior))
	for _, idx := range prior {
		priorByName[idx.Name] = idx
	}
	for i := range next {
		if next[i].Token != "" {
			continue
		}
		if old, ok := priorByName[next[i].Name]; ok {
			next[i].Token = old.Token
		}
	}
}

func mergeConstraintTokens(next, prior []ir.Constraint) {
	priorByName := make(map[string]ir.Constraint, len(prior))
	for _, c := range prior {
		priorByName[c.Name] = c
	}
	for i := range next {
		if next[i].Token != "" {
			continue
		}
		if old, ok := priorByName[next[i].Name]; ok {
			next[i].Token = old.Token
		}
	}
}

// assignTokens gives every object still without a token (new objects,
// or objects regenerated without a prior schema to merge from) a fresh
// one from counter. This is the second of the two token-assignment
// passes: merge first, mint second.
func assignTokens(schema *ir.Schema, counter *ir.TokenCounter) {
	for i := range schema.Tables {
		t := &schema.Tables[i]
		if t.Token == "" {
			t.Token = counter.Next(ir.TokenTable)
		}
		for c := range t.Columns {
			if t.Columns[c].Token == "" {
				t.Columns[c].Token = counter.Next(ir.TokenColumn)
			}
		}
		for idx := range t.Indexes {
			if t.Indexes[idx].Token == "" {
				t.Indexes[idx].Token = counter.Next(ir.TokenIndex)
			}
		}
		for k := range t.Constraints {
			if t.Constraints[k].Token == "" {
				t.Constraints[k].Token = counter.Next(ir.TokenConstraint)
			}
		}
		for p := range t.Policies {
			if t.Policies[p].Token == "" {
				t.Policies[p].Token = counter.Next(ir.TokenPolicy)
			}
		}
	}
	for i := range schema.Enums {
		if schema.Enums[i].Token == "" {
			schema.Enums[i].Token = counter.Next(ir.TokenEnum)
		}
	}
	for i := range schema.Domains {
		if schema.Domains[i].Token == "" {
			schema.Domains[i].Token = counter.Next(ir.TokenDomain)
		}
	}
	for i := range schema.CompositeTypes {
		if schema.CompositeTypes[i].Token == "" {
			schema.CompositeTypes[i].Token = counter.Next(ir.TokenComposite)
		}
	}
	for i := range schema.Sequences {
		if schema.Sequences[i].Token == "" {
			schema.Sequences[i].Token = counter.Next(ir.TokenSequence)
		}
	}
	for i := range schema.Views {
		if schema.Views[i].Token == "" {
			schema.Views[i].Token = counter.Next(ir.TokenView)
		}
	}
	for i := range schema.Functions {
		if schema.Functions[i].Token == "" {
			schema.Functions[i].Token = counter.Next(ir.TokenFunction)
		}
	}
	for i := range schema.Triggers {
		if schema.Triggers[i].Token == "" {
			schema.Triggers[i].Token = counter.Next(ir.TokenTrigger)
		}
	}
	for i := range schema.Extensions {
		if schema.Extensions[i].Token == "" {
			schema.Extensions[i].Token = counter.Next(ir.TokenExtension)
		}
	}
}
