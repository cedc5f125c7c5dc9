package parser

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/relq/relq/internal/ir"
)

func nameListString(nodes []*pg_query.Node) string {
	var last string
	for _, n := range nodes {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			last = s.String_.Sval
		}
	}
	return last
}

func nameListSchema(nodes []*pg_query.Node) string {
	if len(nodes) < 2 {
		return ""
	}
	if s, ok := nodes[0].Node.(*pg_query.Node_String_); ok {
		return s.String_.Sval
	}
	return ""
}

func parseCreateEnum(stmt *pg_query.CreateEnumStmt, sqlText string, tokens map[int]string, loc int) ir.Enum {
	e := ir.Enum{
		Name:   nameListString(stmt.TypeName),
		Schema: nameListSchema(stmt.TypeName),
		Token:  tokenAt(tokens, sqlText, loc),
	}
	for _, v := range stmt.Vals {
		if s, ok := v.Node.(*pg_query.Node_String_); ok {
			e.Values = append(e.Values, s.String_.Sval)
		}
	}
	return e
}

func parseCreateSequence(stmt *pg_query.CreateSeqStmt, sqlText string, tokens map[int]string, loc int) ir.Sequence {
	seq := ir.Sequence{Increment: 1, Start: 1, Cache: 1, Token: tokenAt(tokens, sqlText, loc)}
	if stmt.Sequence != nil {
		seq.Name = stmt.Sequence.Relname
		seq.Schema = stmt.Sequence.Schemaname
	}
	for _, opt := range stmt.Options {
		defElem, ok := opt.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		val := defElemInt(defElem.DefElem)
		switch defElem.DefElem.Defname {
		case "increment":
			seq.Increment = val
		case "start":
			seq.Start = val
		case "minvalue":
			seq.Min = &val
		case "maxvalue":
			seq.Max = &val
		case "cache":
			seq.Cache = val
		case "cycle":
			seq.Cycle = true
		}
	}
	return seq
}

func defElemInt(d *pg_query.DefElem) int64 {
	if d.Arg == nil {
		return 0
	}
	if constNode, ok := d.Arg.Node.(*pg_query.Node_Integer); ok {
		return int64(constNode.Integer.Ival)
	}
	if constNode, ok := d.Arg.Node.(*pg_query.Node_AConst); ok {
		if ival := constNode.AConst.GetIval(); ival != nil {
			return int64(ival.Ival)
		}
	}
	return 0
}

// createViewPrefixRe strips the "CREATE [OR REPLACE] [MATERIALIZED]
// VIEW name [(cols)] AS" clause off a view's raw statement text, and
// matviewSuffixRe strips a trailing "WITH [NO] DATA" clause, so
// View.Definition holds just the query — the same shape astcmp and
// codegen expect, and the only part that ever actually changes between
// two versions of a view.
var createViewPrefixRe = regexp.MustCompile(`(?is)^CREATE\s+(OR\s+REPLACE\s+)?(MATERIALIZED\s+)?VIEW\s+[^\s(]+\s*(\([^)]*\)\s*)?AS\s+`)
var matviewSuffixRe = regexp.MustCompile(`(?is)\s+WITH\s+(NO\s+)?DATA\s*$`)

func extractViewQuery(raw string) string {
	q := createViewPrefixRe.ReplaceAllString(raw, "")
	q = matviewSuffixRe.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// parseCreateView extracts a View from the statement. Its Definition is
// kept as the original query text (not the full CREATE VIEW statement)
// — the teacher never parses views at all, so this avoids building a
// second AST-to-SQL formatter just for SELECT bodies codegen writes
// back out verbatim on every sync anyway.
func parseCreateView(stmt *pg_query.ViewStmt, sqlText string, rawStmt *pg_query.RawStmt, tokens map[int]string, loc int) ir.View {
	v := ir.View{Token: tokenAt(tokens, sqlText, loc)}
	if stmt.View != nil {
		v.Name = stmt.View.Relname
		v.Schema = stmt.View.Schemaname
	}
	v.Definition = extractViewQuery(rawStatementText(sqlText, rawStmt))
	return v
}

func parseCreateMaterializedView(stmt *pg_query.CreateTableAsStmt, sqlText string, rawStmt *pg_query.RawStmt, tokens map[int]string, loc int) *ir.View {
	if stmt.Into == nil || stmt.Into.Rel == nil {
		return nil
	}
	return &ir.View{
		Name:         stmt.Into.Rel.Relname,
		Schema:       stmt.Into.Rel.Schemaname,
		Materialized: true,
		Definition:   extractViewQuery(rawStatementText(sqlText, rawStmt)),
		Token:        tokenAt(tokens, sqlText, loc),
	}
}

// rawStatementText slices the original source between a RawStmt's
// location and length, trimmed of a trailing semicolon.
func rawStatementText(sqlText string, rawStmt *pg_query.RawStmt) string {
	start := int(rawStmt.StmtLocation)
	end := start + int(rawStmt.StmtLen)
	if rawStmt.StmtLen == 0 {
		end = len(sqlText)
	}
	if start < 0 || start > len(sqlText) {
		return ""
	}
	if end > len(sqlText) {
		end = len(sqlText)
	}
	return trimTrailingSemicolon(sqlText[start:end])
}

func trimTrailingSemicolon(s string) string {
	for len(s) > 0 && (s[len(s)-1] == ';' || s[len(s)-1] == '\n' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func parseCreateTrigger(stmt *pg_query.CreateTrigStmt, sqlText string, tokens map[int]string, loc int) ir.Trigger {
	t := ir.Trigger{
		Name:     stmt.Trigname,
		Function: nameListString(stmt.Funcname),
		ForEach:  ir.ForEachStatement,
		Token:    tokenAt(tokens, sqlText, loc),
	}
	if stmt.Relation != nil {
		t.Table = stmt.Relation.Relname
	}

	timing := int(stmt.Timing)
	switch {
	case timing&triggerTypeInstead != 0:
		t.Timing = ir.TriggerInsteadOf
	case timing&triggerTypeBefore != 0:
		t.Timing = ir.TriggerBefore
	default:
		t.Timing = ir.TriggerAfter
	}
	if timing&triggerTypeRow != 0 || stmt.Row {
		t.ForEach = ir.ForEachRow
	}

	events := int(stmt.Events)
	if events&triggerTypeInsert != 0 {
		t.Events = append(t.Events, ir.EventInsert)
	}
	if events&triggerTypeUpdate != 0 {
		t.Events = append(t.Events, ir.EventUpdate)
	}
	if events&triggerTypeDelete != 0 {
		t.Events = append(t.Events, ir.EventDelete)
	}
	if events&triggerTypeTruncate != 0 {
		t.Events = append(t.Events, ir.EventTruncate)
	}

	return t
}

func parseCreateFunction(stmt *pg_query.CreateFunctionStmt, sqlText string, tokens map[int]string, loc int) ir.Function {
	fn := ir.Function{
		Name:       nameListString(stmt.Funcname),
		Language:   "sql",
		Volatility: ir.VolatilityVolatile,
		Token:      tokenAt(tokens, sqlText, loc),
	}
	if stmt.ReturnType != nil {
		fn.ReturnType = formatTypeName(stmt.ReturnType)
	}
	for _, p := range stmt.Parameters {
		param, ok := p.Node.(*pg_query.Node_FunctionParameter)
		if !ok || param.FunctionParameter == nil {
			continue
		}
		arg := ir.FunctionArg{Name: param.FunctionParameter.Name}
		if param.FunctionParameter.ArgType != nil {
			arg.Type = formatTypeName(param.FunctionParameter.ArgType)
		}
		fn.Args = append(fn.Args, arg)
	}
	for _, o := range stmt.Options {
		defElem, ok := o.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		switch defElem.DefElem.Defname {
		case "language":
			fn.Language = defElemString(defElem.DefElem)
		case "as":
			fn.Body = defElemFunctionBody(defElem.DefElem)
		case "volatility":
			switch defElemString(defElem.DefElem) {
			case "immutable":
				fn.Volatility = ir.VolatilityImmutable
			case "stable":
				fn.Volatility = ir.VolatilityStable
			default:
				fn.Volatility = ir.VolatilityVolatile
			}
		case "security":
			fn.SecurityDefiner = defElemString(defElem.DefElem) == "definer"
		}
	}
	return fn
}

func defElemString(d *pg_query.DefElem) string {
	if d.Arg == nil {
		return ""
	}
	if s, ok := d.Arg.Node.(*pg_query.Node_String_); ok {
		return s.String_.Sval
	}
	return ""
}

// defElemFunctionBody reads the AS option's function body: a one- or
// two-element list of String nodes (body, plus an optional link symbol
// for C functions); relq only ever generates the one-element
// SQL/plpgsql form, but a bare string literal is accepted too.
func defElemFunctionBody(d *pg_query.DefElem) string {
	if d.Arg == nil {
		return ""
	}
	if list, ok := d.Arg.Node.(*pg_query.Node_List); ok {
		for _, item := range list.List.Items {
			if s, ok := item.Node.(*pg_query.Node_String_); ok {
				return s.String_.Sval
			}
		}
	}
	if s, ok := d.Arg.Node.(*pg_query.Node_String_); ok {
		return s.String_.Sval
	}
	return ""
}

// parseCreateDomain has no teacher precedent; built directly from
// CreateDomainStmt's field shapes to keep ir.Domain round-trip-able.
func parseCreateDomain(stmt *pg_query.CreateDomainStmt, sqlText string, tokens map[int]string, loc int) ir.Domain {
	d := ir.Domain{
		Name:   nameListString(stmt.Domainname),
		Schema: nameListSchema(stmt.Domainname),
		Token:  tokenAt(tokens, sqlText, loc),
	}
	if stmt.TypeName != nil {
		d.BaseType = formatTypeName(stmt.TypeName)
	}
	for _, c := range stmt.Constraints {
		cons, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}
		switch cons.Constraint.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			d.NotNull = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.Constraint.RawExpr != nil {
				expr := formatExpr(cons.Constraint.RawExpr)
				d.Default = &expr
			}
		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.Constraint.RawExpr != nil {
				d.Constraints = append(d.Constraints, formatExpr(cons.Constraint.RawExpr))
			}
		}
	}
	return d
}

// parseCompositeType has no teacher precedent either; built from
// CompositeTypeStmt's RangeVar + column-definition-list shape.
func parseCompositeType(stmt *pg_query.CompositeTypeStmt, sqlText string, tokens map[int]string, loc int) ir.CompositeType {
	ct := ir.CompositeType{Token: tokenAt(tokens, sqlText, loc)}
	if stmt.Typevar != nil {
		ct.Name = stmt.Typevar.Relname
		ct.Schema = stmt.Typevar.Schemaname
	}
	for _, c := range stmt.Coldeflist {
		colDef, ok := c.Node.(*pg_query.Node_ColumnDef)
		if !ok || colDef.ColumnDef == nil {
			continue
		}
		attr := ir.CompositeAttribute{Name: colDef.ColumnDef.Colname}
		if colDef.ColumnDef.TypeName != nil {
			attr.Type = formatTypeName(colDef.ColumnDef.TypeName)
		}
		ct.Attributes = append(ct.Attributes, attr)
	}
	return ct
}

func parseCreateExtension(stmt *pg_query.CreateExtensionStmt, sqlText string, tokens map[int]string, loc int) ir.Extension {
	ext := ir.Extension{Name: stmt.Extname, Token: tokenAt(tokens, sqlText, loc)}
	for _, o := range stmt.Options {
		defElem, ok := o.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		switch defElem.DefElem.Defname {
		case "new_version":
			ext.Version = defElemString(defElem.DefElem)
		case "schema":
			ext.Schema = defElemString(defElem.DefElem)
		}
	}
	return ext
}
