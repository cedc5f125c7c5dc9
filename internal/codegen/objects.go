package codegen

import (
	"fmt"
	"strings"

	"github.com/relq/relq/internal/ir"
)

func writeEnum(b *strings.Builder, e ir.Enum) {
	quoted := make([]string, len(e.Values))
	for i, v := range e.Values {
		quoted[i] = quoteLiteral(v)
	}
	fmt.Fprintf(b, "CREATE TYPE %s AS ENUM (%s); -- relq:token %s\n\n", qualifiedName(e.Schema, e.Name), strings.Join(quoted, ", "), e.Token)
}

func writeDomain(b *strings.Builder, d ir.Domain) {
	fmt.Fprintf(b, "CREATE DOMAIN %s AS %s", qualifiedName(d.Schema, d.Name), d.BaseType)
	if d.NotNull {
		b.WriteString(" NOT NULL")
	}
	if d.Default != nil {
		fmt.Fprintf(b, " DEFAULT %s", *d.Default)
	}
	for _, c := range d.Constraints {
		fmt.Fprintf(b, " CHECK (%s)", c)
	}
	fmt.Fprintf(b, "; -- relq:token %s\n\n", d.Token)
}

func writeCompositeType(b *strings.Builder, c ir.CompositeType) {
	attrs := make([]string, len(c.Attributes))
	for i, a := range c.Attributes {
		attrs[i] = fmt.Sprintf("%s %s", a.Name, a.Type)
	}
	fmt.Fprintf(b, "CREATE TYPE %s AS (%s); -- relq:token %s\n\n", qualifiedName(c.Schema, c.Name), strings.Join(attrs, ", "), c.Token)
}

func writeSequence(b *strings.Builder, s ir.Sequence) {
	fmt.Fprintf(b, "CREATE SEQUENCE %s INCREMENT BY %d START WITH %d", qualifiedName(s.Schema, s.Name), s.Increment, s.Start)
	if s.Min != nil {
		fmt.Fprintf(b, " MINVALUE %d", *s.Min)
	}
	if s.Max != nil {
		fmt.Fprintf(b, " MAXVALUE %d", *s.Max)
	}
	if s.Cache != 0 {
		fmt.Fprintf(b, " CACHE %d", s.Cache)
	}
	if s.Cycle {
		b.WriteString(" CYCLE")
	}
	fmt.Fprintf(b, "; -- relq:token %s\n\n", s.Token)
}

func writeView(b *strings.Builder, v ir.View) {
	kind := "VIEW"
	if v.Materialized {
		kind = "MATERIALIZED VIEW"
	}
	fmt.Fprintf(b, "CREATE %s %s AS -- relq:token %s\n%s;\n\n", kind, qualifiedName(v.Schema, v.Name), v.Token, v.Definition)
}

func writeFunction(b *strings.Builder, f ir.Function) {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		if a.Name != "" {
			args[i] = fmt.Sprintf("%s %s", a.Name, a.Type)
		} else {
			args[i] = a.Type
		}
	}
	fmt.Fprintf(b, "CREATE OR REPLACE FUNCTION %s(%s) RETURNS %s -- relq:token %s\n",
		qualifiedName(f.Schema, f.Name), strings.Join(args, ", "), f.ReturnType, f.Token)
	fmt.Fprintf(b, "LANGUAGE %s", f.Language)
	if f.Volatility != "" {
		fmt.Fprintf(b, " %s", f.Volatility)
	}
	if f.SecurityDefiner {
		b.WriteString(" SECURITY DEFINER")
	}
	fmt.Fprintf(b, "\nAS $$\n%s\n$$;\n\n", f.Body)
}

func writeTrigger(b *strings.Builder, t ir.Trigger) {
	events := make([]string, len(t.Events))
	for i, e := range t.Events {
		events[i] = string(e)
	}
	fmt.Fprintf(b, "CREATE TRIGGER %s %s %s ON %s FOR EACH %s -- relq:token %s\nEXECUTE FUNCTION %s();\n\n",
		t.Name, t.Timing, strings.Join(events, " OR "), t.Table, t.ForEach, t.Token, t.Function)
}

func writeExtension(b *strings.Builder, e ir.Extension) {
	fmt.Fprintf(b, "CREATE EXTENSION IF NOT EXISTS %s", e.Name)
	if e.Schema != "" {
		fmt.Fprintf(b, " SCHEMA %s", e.Schema)
	}
	if e.Version != "" {
		fmt.Fprintf(b, " VERSION %s", quoteLiteral(e.Version))
	}
	fmt.Fprintf(b, "; -- relq:token %s\n\n", e.Token)
}
