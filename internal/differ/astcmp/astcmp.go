// Package astcmp compares two raw SQL expression or function-body
// strings for semantic equivalence rather than textual equality, so a
// CHECK constraint or function body that was merely reformatted
// (reindented, reparenthesized, whitespace-only) doesn't show up as a
// change every time a schema is read back and re-diffed.
package astcmp

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ExpressionsEquivalent reports whether two raw SQL expressions (as
// found in a CHECK constraint or a column's GENERATED/DEFAULT clause)
// parse to the same AST. Each is wrapped in a throwaway SELECT so the
// PostgreSQL grammar can parse a bare expression, then deparsed back
// to canonical text and compared. Falls back to normalized textual
// comparison when either side fails to parse (e.g. dialect-specific
// syntax libpg_query doesn't know).
func ExpressionsEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	normA, okA := normalizeExpression(a)
	normB, okB := normalizeExpression(b)
	if okA && okB {
		return normA == normB
	}
	return normalizeText(a) == normalizeText(b)
}

// FunctionBodiesEquivalent reports whether two function bodies are
// semantically the same. SQL-language bodies parse and deparse like
// any other statement; plpgsql (and other procedural-language) bodies
// aren't parseable by libpg_query at all, so they always fall back to
// normalized textual comparison.
func FunctionBodiesEquivalent(a, b, language string) bool {
	if a == b {
		return true
	}
	if strings.EqualFold(language, "sql") {
		normA, okA := normalizeStatement(a)
		normB, okB := normalizeStatement(b)
		if okA && okB {
			return normA == normB
		}
	}
	return normalizeText(a) == normalizeText(b)
}

// ReferencedColumns returns the distinct column names a raw SQL
// expression refers to (as found in a CHECK constraint), used to match
// a constraint across a rename rather than by its (often
// database-generated) name. ok is false when the expression can't be
// parsed, so the caller can fall back to a name-based heuristic.
func ReferencedColumns(expr string) (cols []string, ok bool) {
	wrapped := fmt.Sprintf("SELECT (%s)", expr)
	tree, err := pg_query.Parse(wrapped)
	if err != nil || len(tree.Stmts) == 0 {
		return nil, false
	}
	seen := make(map[string]bool)
	collectColumnRefs(tree.Stmts[0].Stmt, func(name string) {
		if !seen[name] {
			seen[name] = true
			cols = append(cols, name)
		}
	})
	return cols, true
}

// collectColumnRefs walks the expression node kinds a CHECK constraint
// realistically contains (boolean/arithmetic operators, function
// calls, casts, null tests) and reports every bare column reference it
// finds along the way.
func collectColumnRefs(node *pg_query.Node, emit func(string)) {
	if node == nil {
		return
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_ColumnRef:
		for _, f := range n.ColumnRef.Fields {
			if s, ok := f.Node.(*pg_query.Node_String_); ok {
				emit(s.String_.Sval)
			}
		}
	case *pg_query.Node_AExpr:
		collectColumnRefs(n.AExpr.Lexpr, emit)
		collectColumnRefs(n.AExpr.Rexpr, emit)
	case *pg_query.Node_BoolExpr:
		for _, a := range n.BoolExpr.Args {
			collectColumnRefs(a, emit)
		}
	case *pg_query.Node_FuncCall:
		for _, a := range n.FuncCall.Args {
			collectColumnRefs(a, emit)
		}
	case *pg_query.Node_TypeCast:
		collectColumnRefs(n.TypeCast.Arg, emit)
	case *pg_query.Node_NullTest:
		collectColumnRefs(n.NullTest.Arg, emit)
	case *pg_query.Node_SelectStmt:
		for _, t := range n.SelectStmt.TargetList {
			if rt, ok := t.Node.(*pg_query.Node_ResTarget); ok {
				collectColumnRefs(rt.ResTarget.Val, emit)
			}
		}
	}
}

func normalizeExpression(expr string) (string, bool) {
	wrapped := fmt.Sprintf("SELECT (%s)", expr)
	tree, err := pg_query.Parse(wrapped)
	if err != nil || len(tree.Stmts) == 0 {
		return "", false
	}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return "", false
	}
	return out, true
}

func normalizeStatement(stmt string) (string, bool) {
	trimmed := strings.TrimSpace(stmt)
	if trimmed == "" {
		return "", false
	}
	if !strings.HasSuffix(trimmed, ";") {
		trimmed += ";"
	}
	tree, err := pg_query.Parse(trimmed)
	if err != nil || len(tree.Stmts) == 0 {
		return "", false
	}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return "", false
	}
	return out, true
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeText is the last-resort comparison: lowercase, collapse
// whitespace runs, and strip every layer of redundant outer parens.
func normalizeText(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	t = whitespaceRe.ReplaceAllString(t, " ")
	for strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") && balancedParens(t) {
		t = strings.TrimSpace(t[1 : len(t)-1])
	}
	return t
}

// balancedParens reports whether s's leading "(" closes at its
// trailing ")" rather than mid-string, so "(a) + (b)" isn't
// mistakenly stripped to "a) + (b".
func balancedParens(s string) bool {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}
